package main

import (
	"github.com/pkg/errors"

	"github.com/astralkn/termprogress/progress"
)

const (
	targetAuto   = "auto"
	targetTerm   = "term"
	targetStream = "stream"
	targetHidden = "hidden"
)

var targetValues = "auto, term, stream, hidden"

type targetValue struct {
	value string
}

func (t *targetValue) Set(val string) error {
	switch val {
	case targetAuto, targetTerm, targetStream, targetHidden:
		t.value = val
		return nil
	}
	return errors.Errorf("invalid value: %v, must be one of: "+targetValues, val)
}

func (t *targetValue) Type() string {
	return "target"
}

func (t *targetValue) String() string {
	if t.value == "" {
		return targetAuto
	}
	return t.value
}

var finishPolicyValues = "leave, erase"

type finishPolicyValue struct {
	value progress.FinishPolicy
}

func (f *finishPolicyValue) Set(val string) error {
	switch val {
	case "leave":
		f.value = progress.FinishLeave
		return nil
	case "erase":
		f.value = progress.FinishErase
		return nil
	}
	return errors.Errorf("invalid value: %v, must be one of: "+finishPolicyValues, val)
}

func (f *finishPolicyValue) Type() string {
	return "policy"
}

func (f *finishPolicyValue) String() string {
	return f.value.String()
}

var alignmentValues = "top, bottom"

type alignmentValue struct {
	value progress.Alignment
}

func (a *alignmentValue) Set(val string) error {
	switch val {
	case "top":
		a.value = progress.AlignTop
		return nil
	case "bottom":
		a.value = progress.AlignBottom
		return nil
	}
	return errors.Errorf("invalid value: %v, must be one of: "+alignmentValues, val)
}

func (a *alignmentValue) Type() string {
	return "alignment"
}

func (a *alignmentValue) String() string {
	return a.value.String()
}
