package dialog

import (
	"io"

	"github.com/manifoldco/promptui"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"

	"github.com/team-atlanta/incbench/pkg/cmdutils"
)

// Select offers the user a list of items (label:value) to select from
// and returns the value of the selected item
func Select(message string, items map[string]string, inReader io.Reader) (string, error) {
	prompt := promptui.Select{
		Label: message,
		Items: maps.Keys(items),
		Stdin: io.NopCloser(inReader),
	}
	_, result, err := prompt.Run()
	if err == promptui.ErrInterrupt {
		return "", cmdutils.WrapSilentError(errors.WithStack(err))
	}
	if err != nil {
		return "", errors.WithStack(err)
	}

	return items[result], nil
}

// Confirm asks the user a yes/no question and returns their answer.
// Interrupting the prompt counts as "no" instead of an error, so a
// Ctrl-C during the publish confirmation doesn't print a stack trace.
func Confirm(message string, defaultValue bool, inReader io.Reader) (bool, error) {
	defaultLabel := "y"
	if !defaultValue {
		defaultLabel = "n"
	}

	prompt := promptui.Prompt{
		Label:     message,
		IsConfirm: true,
		Default:   defaultLabel,
		Stdin:     io.NopCloser(inReader),
	}

	_, err := prompt.Run()
	if err == promptui.ErrInterrupt || err == promptui.ErrAbort {
		return false, nil
	}
	if err != nil {
		// promptui reports any input that is not "y" as an error
		return false, nil
	}
	return true, nil
}
