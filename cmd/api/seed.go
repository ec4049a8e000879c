package main

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/booking-api/internal/config"
	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
	"github.com/jwalitptl/booking-api/pkg/auth"
)

var specialties = []string{
	"Cardiology",
	"Dermatology",
	"General Practice",
	"Neurology",
	"Ophthalmology",
	"Pediatrics",
}

type seedOptions struct {
	Doctors  int
	Patients int
	// Days of half-hour morning slots created per doctor, starting tomorrow
	Days int
}

func defaultSeedOptions() seedOptions {
	return seedOptions{Doctors: 5, Patients: 20, Days: 5}
}

type seedResult struct {
	Doctors  []*model.Doctor
	Patients []*model.Patient
	Slots    int
	Tokens   map[string]string
}

func seedCmd() *cobra.Command {
	opts := defaultSeedOptions()
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load fake doctors, patients and time slots",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			store, closeStore, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			tokens, err := auth.NewJWTProvider(cfg.JWT.ToAuthConfig())
			if err != nil {
				return err
			}

			result, err := seedStore(cmd.Context(), store, tokens, opts)
			if err != nil {
				return err
			}
			for who, token := range result.Tokens {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", who, token)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.Doctors, "doctors", opts.Doctors, "number of doctors")
	cmd.Flags().IntVar(&opts.Patients, "patients", opts.Patients, "number of patients")
	cmd.Flags().IntVar(&opts.Days, "days", opts.Days, "days of slots per doctor")
	return cmd
}

// seedStore writes everything in one transaction and issues a token for
// the first doctor and the first patient
func seedStore(ctx context.Context, store repository.Store, tokens *auth.JWTProvider, opts seedOptions) (*seedResult, error) {
	result := &seedResult{Tokens: make(map[string]string)}

	err := store.WithTx(ctx, func(tx repository.Store) error {
		specialtyIDs := make([]int64, 0, len(specialties))
		for _, label := range specialties {
			s := &model.Specialty{Label: label}
			if err := tx.Reference().CreateSpecialty(ctx, s); err != nil {
				return err
			}
			specialtyIDs = append(specialtyIDs, s.ID)
		}

		address := gofakeit.Street()
		lat, lng := gofakeit.Latitude(), gofakeit.Longitude()
		institution := &model.HealthInstitution{
			Name:      gofakeit.Company() + " Clinic",
			Address:   &address,
			Latitude:  &lat,
			Longitude: &lng,
		}
		if err := tx.Reference().CreateInstitution(ctx, institution); err != nil {
			return err
		}

		tomorrow := time.Now().UTC().Truncate(24*time.Hour).AddDate(0, 0, 1)
		for i := 0; i < opts.Doctors; i++ {
			specialtyID := specialtyIDs[gofakeit.Number(0, len(specialtyIDs)-1)]
			phone := gofakeit.Phone()
			doctor := &model.Doctor{
				FirstName:           gofakeit.FirstName(),
				LastName:            gofakeit.LastName(),
				Email:               gofakeit.Email(),
				Phone:               &phone,
				SpecialtyID:         &specialtyID,
				HealthInstitutionID: &institution.ID,
			}
			if err := tx.Doctors().Create(ctx, doctor); err != nil {
				return err
			}
			result.Doctors = append(result.Doctors, doctor)

			if err := tx.WorkingHours().Upsert(ctx, &model.WorkingHours{
				DoctorID:  doctor.ID,
				DayOfWeek: int(time.Monday),
				Period:    model.PeriodMorning,
				StartTime: model.ClockTime(9, 0, 0),
				EndTime:   model.ClockTime(12, 0, 0),
			}); err != nil {
				return err
			}

			for d := 0; d < opts.Days; d++ {
				for hour := 9; hour < 12; hour++ {
					for _, minute := range []int{0, 30} {
						slot := &model.TimeSlot{
							DoctorID:  doctor.ID,
							Date:      tomorrow.AddDate(0, 0, d),
							StartTime: model.ClockTime(hour, minute, 0),
							EndTime:   model.ClockTime(hour, minute+29, 59),
						}
						if err := tx.TimeSlots().Create(ctx, slot); err != nil {
							return err
						}
						result.Slots++
					}
				}
			}
		}

		for i := 0; i < opts.Patients; i++ {
			age := gofakeit.Number(18, 90)
			patient := &model.Patient{
				FirstName: gofakeit.FirstName(),
				LastName:  gofakeit.LastName(),
				Email:     gofakeit.Email(),
				Age:       &age,
			}
			if err := tx.Patients().Create(ctx, patient); err != nil {
				return err
			}
			result.Patients = append(result.Patients, patient)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to seed store: %w", err)
	}

	if len(result.Doctors) > 0 {
		if err := issue(tokens, result, "doctor", result.Doctors[0].ID, model.UserTypeDoctor); err != nil {
			return nil, err
		}
	}
	if len(result.Patients) > 0 {
		if err := issue(tokens, result, "patient", result.Patients[0].ID, model.UserTypePatient); err != nil {
			return nil, err
		}
	}

	log.Info().
		Int("doctors", len(result.Doctors)).
		Int("patients", len(result.Patients)).
		Int("slots", result.Slots).
		Msg("Seed complete")
	return result, nil
}

func issue(tokens *auth.JWTProvider, result *seedResult, label string, id int64, userType model.UserType) error {
	token, err := tokens.Issue(model.Identity{UserID: id, UserType: userType})
	if err != nil {
		return fmt.Errorf("failed to issue %s token: %w", label, err)
	}
	result.Tokens[fmt.Sprintf("%s:%d", label, id)] = token
	return nil
}
