package composer

import (
	"context"
	"fmt"
)

const (
	ParamKeywords          = "keywords"
	ParamTargetArea        = "target_area"
	ParamTone              = "tone"
	ParamLength            = "length"
	ParamCustomInstruction = "custom_instruction"
)

func ParameterNames() []string {
	return []string{ParamKeywords, ParamTargetArea, ParamTone, ParamLength, ParamCustomInstruction}
}

type Parameter struct {
	Value  string `json:"value"`
	Locked bool   `json:"locked"`
}

// parameterSet is the lock-aware generation input of one session.
type parameterSet struct {
	userID int64
	store  LockStore
	values map[string]Parameter
}

// loadParameters seeds a session from the durable snapshots. Only locked
// entries are authoritative; unlocked ones start empty.
func loadParameters(ctx context.Context, userID int64, store LockStore) (*parameterSet, error) {
	ps := &parameterSet{
		userID: userID,
		store:  store,
		values: make(map[string]Parameter, len(ParameterNames())),
	}
	for _, name := range ParameterNames() {
		ps.values[name] = Parameter{}
	}

	stored, err := store.Load(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load generation defaults: %w", err)
	}
	for name, p := range stored {
		if _, ok := ps.values[name]; !ok || !p.Locked {
			continue
		}
		ps.values[name] = Parameter{Value: p.Value, Locked: true}
	}

	return ps, nil
}

func (ps *parameterSet) set(name, value string) error {
	p, ok := ps.values[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownParameter, name)
	}
	if p.Locked {
		return fmt.Errorf("%w: %s", ErrParameterLocked, name)
	}
	p.Value = value
	ps.values[name] = p
	return nil
}

// toggle flips the lock flag. Locking snapshots the current value; unlocking
// keeps the stored value but marks it as no longer authoritative.
func (ps *parameterSet) toggle(ctx context.Context, name string, locked bool) error {
	p, ok := ps.values[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownParameter, name)
	}
	if p.Locked == locked {
		return nil
	}

	if err := ps.store.Save(ctx, ps.userID, name, StoredParameter{Value: p.Value, Locked: locked}); err != nil {
		return fmt.Errorf("save generation default %s: %w", name, err)
	}
	p.Locked = locked
	ps.values[name] = p
	return nil
}

// resetUnlocked empties every parameter that is not locked.
func (ps *parameterSet) resetUnlocked() {
	for name, p := range ps.values {
		if !p.Locked {
			ps.values[name] = Parameter{}
		}
	}
}

func (ps *parameterSet) snapshot() map[string]Parameter {
	out := make(map[string]Parameter, len(ps.values))
	for name, p := range ps.values {
		out[name] = p
	}
	return out
}

func (ps *parameterSet) plainValues() map[string]string {
	out := make(map[string]string, len(ps.values))
	for name, p := range ps.values {
		if p.Value != "" {
			out[name] = p.Value
		}
	}
	return out
}
