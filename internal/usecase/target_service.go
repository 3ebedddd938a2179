package usecase

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gizibunda/backend/internal/domain"
)

// Pregnancy energy surcharge per trimester, kcal/day
const (
	trimesterOneExtraKcal   = 180
	trimesterTwoExtraKcal   = 300
	trimesterThreeExtraKcal = 450
)

var activityFactors = map[domain.ActivityLevel]float64{
	domain.ActivityLight:    1.375,
	domain.ActivityModerate: 1.55,
	domain.ActivityHeavy:    1.725,
}

const sedentaryFactor = 1.2

// fixedDailyTargets are the micronutrient targets that do not depend on the profile
var fixedDailyTargets = map[domain.NutrientKey]float64{
	domain.Fiber:      30,
	domain.Sugar:      36,
	domain.Sodium:     2300,
	domain.FolicAcid:  600, // µg
	domain.Calcium:    1000,
	domain.VitaminD:   15, // µg
	domain.VitaminB6:  1.9,
	domain.VitaminB12: 2.6, // µg
	domain.VitaminC:   85,
	domain.Zinc:       11,
	domain.Iodine:     220, // µg
	domain.Water:      3000,
	domain.Iron:       27,
}

// TrimesterFor maps a gestational age in weeks to its trimester (1-3)
func TrimesterFor(weeks int) int {
	switch {
	case weeks >= 28:
		return 3
	case weeks >= 13:
		return 2
	default:
		return 1
	}
}

// CalculateDailyTarget computes the recommended daily intake of a pregnant
// woman using the Mifflin-St Jeor BMR, an activity factor and a trimester surcharge.
func CalculateDailyTarget(profile domain.MotherProfile, now time.Time) (domain.DailyTarget, error) {
	if profile.WeightKg <= 0 || profile.HeightCm <= 0 {
		return domain.DailyTarget{}, fmt.Errorf("%w: weight and height must be positive", domain.ErrInvalidInput)
	}
	if profile.Birthdate.IsZero() || profile.Birthdate.After(now) {
		return domain.DailyTarget{}, fmt.Errorf("%w: birthdate is required and must be in the past", domain.ErrInvalidInput)
	}
	if profile.GestationalAgeWeeks < 0 {
		return domain.DailyTarget{}, fmt.Errorf("%w: gestational age cannot be negative", domain.ErrInvalidInput)
	}

	age := ageInYears(profile.Birthdate, now)
	bmr := 10*profile.WeightKg + 6.25*profile.HeightCm - 5*float64(age) - 161

	factor, ok := activityFactors[domain.ActivityLevel(strings.ToLower(string(profile.ActivityLevel)))]
	if !ok {
		factor = sedentaryFactor
	}
	calories := bmr * factor

	trimester := TrimesterFor(profile.GestationalAgeWeeks)
	switch trimester {
	case 1:
		calories += trimesterOneExtraKcal
	case 2:
		calories += trimesterTwoExtraKcal
	case 3:
		calories += trimesterThreeExtraKcal
	}

	targets := map[domain.NutrientKey]float64{
		domain.Calories: math.Round(calories),
		domain.Protein:  math.Round(calories*0.20/4 + 10),
		domain.Fat:      math.Round(calories * 0.25 / 9),
		domain.Carbs:    math.Round(calories * 0.55 / 4),
	}
	for key, value := range fixedDailyTargets {
		targets[key] = value
	}

	return domain.DailyTarget{Trimester: trimester, Targets: targets}, nil
}

// ageInYears returns completed years between birthdate and now
func ageInYears(birthdate, now time.Time) int {
	age := now.Year() - birthdate.Year()
	if now.Month() < birthdate.Month() || (now.Month() == birthdate.Month() && now.Day() < birthdate.Day()) {
		age--
	}
	return age
}
