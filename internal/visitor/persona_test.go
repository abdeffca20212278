package visitor_test

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/myrjola/gatehouse/internal/visitor"
	"github.com/stretchr/testify/require"
)

func TestNewPersona(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 100; i++ {
		persona := visitor.NewPersona(rng)
		id := persona.Identity

		require.NotEmpty(t, id.Name)
		require.NotEmpty(t, id.Nationality)
		require.Regexp(t, `^ID-\d{6}-\d{4}$`, id.IDNumber)
		require.Regexp(t, `^headshot_\d{2}$`, id.Headshot)
		require.NotEmpty(t, persona.Mood.Name)

		// Age must be consistent with the date of birth.
		year := time.Now().Year()
		require.GreaterOrEqual(t, id.Age, 17)
		require.LessOrEqual(t, id.Age, 55)
		require.GreaterOrEqual(t, id.DOB.Year, year-55)
		require.LessOrEqual(t, id.DOB.Year, year-18)
		require.Greater(t, id.Expiry.Year, year)

		// Appointment details are present exactly when an appointment exists.
		if persona.Intake.Appointment {
			require.NotEmpty(t, persona.Intake.AppointmentTime)
			require.NotEmpty(t, persona.Intake.MeetingWith)
		} else {
			require.Empty(t, persona.Intake.AppointmentTime)
			require.Empty(t, persona.Intake.MeetingWith)
		}
	}
}
