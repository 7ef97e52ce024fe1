package tui

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"nathanbeddoewebdev/devsweep/internal/domain"
	"nathanbeddoewebdev/devsweep/internal/policy"

	"github.com/charmbracelet/huh"
)

// ErrReviewAborted is returned when the user cancels the review flow.
var ErrReviewAborted = errors.New("device review aborted by user")

// ReviewDevices runs an interactive review of sweep candidates. Every
// device starts selected; the operator deselects the ones to spare, then
// confirms. The returned slice preserves the original ordering. Callers
// receive ErrReviewAborted when the operator backs out.
func ReviewDevices(devices []domain.Device, threshold time.Time, mode policy.Mode) ([]domain.Device, error) {
	if len(devices) == 0 {
		return nil, nil
	}

	accessible := os.Getenv("ACCESSIBLE") != ""

	deviceByID := make(map[string]domain.Device, len(devices))
	for _, d := range devices {
		deviceByID[d.ID] = d
	}

	// Preselect everything: the default sweep touches every candidate.
	selectedIDs := make([]string, 0, len(devices))
	deviceOpts := make([]huh.Option[string], 0, len(devices))
	for _, d := range devices {
		selectedIDs = append(selectedIDs, d.ID)
		deviceOpts = append(deviceOpts, huh.NewOption(deviceOptionLabel(d, threshold), d.ID))
	}

	height := len(deviceOpts)
	if height < 5 {
		height = 5
	}
	if height > 14 {
		height = 14
	}

	selectField := huh.NewMultiSelect[string]().
		Title(fmt.Sprintf("Review devices to %s (%d candidates)", mode, len(devices))).
		Description("Deselect any device that should be left untouched.").
		Options(deviceOpts...).
		Value(&selectedIDs).
		Height(height)

	summaryNote := huh.NewNote().
		Title("Selection").
		DescriptionFunc(func() string {
			return buildReviewSummary(selectedIDs, deviceByID, mode)
		}, &selectedIDs)

	confirm := false
	confirmField := huh.NewConfirm().
		Title(confirmTitle(mode)).
		Affirmative("Yes, "+string(mode)).
		Negative("Cancel").
		Value(&confirm)

	if err := runForm(accessible,
		huh.NewGroup(selectField),
		huh.NewGroup(summaryNote, confirmField),
	); err != nil {
		return nil, err
	}

	if !confirm {
		return nil, ErrReviewAborted
	}

	kept := make(map[string]struct{}, len(selectedIDs))
	for _, id := range selectedIDs {
		kept[id] = struct{}{}
	}

	result := make([]domain.Device, 0, len(selectedIDs))
	for _, d := range devices {
		if _, ok := kept[d.ID]; ok {
			result = append(result, d)
		}
	}
	return result, nil
}

// runForm creates and runs a huh.Form, translating ErrUserAborted to
// ErrReviewAborted.
func runForm(accessible bool, groups ...*huh.Group) error {
	err := huh.NewForm(groups...).WithAccessible(accessible).Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ErrReviewAborted
		}
		return err
	}
	return nil
}

func confirmTitle(mode policy.Mode) string {
	if mode == policy.ModeDelete {
		return "Delete the selected devices? This action cannot be undone."
	}
	return "Disable the selected devices?"
}

// deviceOptionLabel formats a device for the review selection list.
func deviceOptionLabel(d domain.Device, threshold time.Time) string {
	parts := []string{d.DisplayName}

	parts = append(parts, deviceState(d, threshold))
	if d.OperatingSystem != "" {
		parts = append(parts, d.OperatingSystem)
	}
	parts = append(parts, "last sign-in "+formatSignIn(d))

	return strings.Join(parts, " - ")
}

// buildReviewSummary formats the current selection for the confirmation
// step.
func buildReviewSummary(selectedIDs []string, deviceByID map[string]domain.Device, mode policy.Mode) string {
	if len(selectedIDs) == 0 {
		return fmt.Sprintf("No devices selected. Confirming will %s nothing.", mode)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d device(s) selected to %s:\n", len(selectedIDs), mode)

	const maxListed = 10
	for i, id := range selectedIDs {
		if i == maxListed {
			fmt.Fprintf(&b, "  … and %d more\n", len(selectedIDs)-maxListed)
			break
		}
		if d, ok := deviceByID[id]; ok {
			fmt.Fprintf(&b, "  %s (%s)\n", d.DisplayName, d.ID)
		}
	}

	return strings.TrimSpace(b.String())
}
