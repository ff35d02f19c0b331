package models

import "strings"

// Enumerated listing attributes. Values are stored as upper-case strings.

type FuelType string

const (
	FuelGasoline FuelType = "GASOLINE"
	FuelElectric FuelType = "ELECTRIC"
	FuelHybrid   FuelType = "HYBRID"
)

type Transmission string

const (
	TransmissionManual        Transmission = "MANUAL"
	TransmissionAutomatic     Transmission = "AUTOMATIC"
	TransmissionSemiAutomatic Transmission = "SEMI_AUTOMATIC"
)

type VehicleState string

const (
	VehicleStateNew      VehicleState = "NEW"
	VehicleStateUsed     VehicleState = "USED"
	VehicleStateForParts VehicleState = "FOR_PARTS"
)

type Condition string

const (
	ConditionExcellent   Condition = "EXCELLENT"
	ConditionVeryGood    Condition = "VERY_GOOD"
	ConditionGood        Condition = "GOOD"
	ConditionFair        Condition = "FAIR"
	ConditionNeedsRepair Condition = "NEEDS_REPAIR"
)

type Brakes string

const (
	BrakesDisc  Brakes = "DISC"
	BrakesDrum  Brakes = "DRUM"
	BrakesMixed Brakes = "MIXED"
	BrakesABS   Brakes = "ABS"
	BrakesCBS   Brakes = "CBS"
)

type Tires string

const (
	TiresNew             Tires = "NEW"
	TiresGood            Tires = "GOOD"
	TiresFair            Tires = "FAIR"
	TiresNeedReplacement Tires = "NEED_REPLACEMENT"
)

var (
	fuelTypes     = []FuelType{FuelGasoline, FuelElectric, FuelHybrid}
	transmissions = []Transmission{TransmissionManual, TransmissionAutomatic, TransmissionSemiAutomatic}
	vehicleStates = []VehicleState{VehicleStateNew, VehicleStateUsed, VehicleStateForParts}
	conditions    = []Condition{ConditionExcellent, ConditionVeryGood, ConditionGood, ConditionFair, ConditionNeedsRepair}
	brakes        = []Brakes{BrakesDisc, BrakesDrum, BrakesMixed, BrakesABS, BrakesCBS}
	tires         = []Tires{TiresNew, TiresGood, TiresFair, TiresNeedReplacement}
)

func (f FuelType) Valid() bool     { return contains(fuelTypes, f) }
func (t Transmission) Valid() bool { return contains(transmissions, t) }
func (s VehicleState) Valid() bool { return contains(vehicleStates, s) }
func (c Condition) Valid() bool    { return contains(conditions, c) }
func (b Brakes) Valid() bool       { return contains(brakes, b) }
func (t Tires) Valid() bool        { return contains(tires, t) }

// NormalizeEnum upper-cases and trims a raw enum value so "semi_automatic "
// and "SEMI_AUTOMATIC" compare equal.
func NormalizeEnum(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

func contains[T comparable](values []T, v T) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
