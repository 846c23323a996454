package core

import "fmt"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Policy decides what happens to a member whose mailbox is full.
type Policy interface {
	OnBackPressure(room string, member *Member) BackpressureAction
}

// KickPolicy removes slow members from the room.
type KickPolicy struct{}

func (KickPolicy) OnBackPressure(string, *Member) BackpressureAction { return KickMember }

// DropPolicy keeps slow members and drops the frame for them only.
type DropPolicy struct{}

func (DropPolicy) OnBackPressure(string, *Member) BackpressureAction { return DropFrame }

// PolicyByName maps the config value to a Policy.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", "kick":
		return KickPolicy{}, nil
	case "drop":
		return DropPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown backpressure policy %q", name)
	}
}
