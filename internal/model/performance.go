package model

import "fmt"

// Direction classifies the sign of a return.
type Direction int

const (
	Flat Direction = iota
	Up
	Down
)

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	default:
		return "flat"
	}
}

// Performance summarizes one ticker over the selected window.
type Performance struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Initial   float64   `json:"initial"`
	Final     float64   `json:"final"`
	Return    float64   `json:"return"`
	Direction Direction `json:"direction"`
}

// MarshalText encodes the direction by name.
func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText decodes a direction written by MarshalText.
func (d *Direction) UnmarshalText(text []byte) error {
	switch string(text) {
	case "up":
		*d = Up
	case "down":
		*d = Down
	case "flat":
		*d = Flat
	default:
		return fmt.Errorf("unknown direction %q", text)
	}
	return nil
}
