package policy

import (
	"strings"
	"testing"
	"time"

	"nathanbeddoewebdev/devsweep/internal/domain"
)

func TestThreshold_NinetyDayWindow(t *testing.T) {
	// 2024-06-01 minus 90 calendar days is 2024-03-03.
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	got := Threshold(now, 90)
	want := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)

	if !got.Equal(want) {
		t.Errorf("Threshold(2024-06-01, 90) = %v, want %v", got, want)
	}
}

func TestThreshold_TimeOfDayDropped(t *testing.T) {
	// Any time of day on the same date yields the same midnight cutoff.
	times := []time.Time{
		time.Date(2024, 6, 1, 0, 0, 1, 0, time.UTC),
		time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC),
		time.Date(2024, 6, 1, 23, 59, 59, 999, time.UTC),
	}
	want := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)

	for _, now := range times {
		if got := Threshold(now, 90); !got.Equal(want) {
			t.Errorf("Threshold(%v, 90) = %v, want %v", now, got, want)
		}
	}
}

func TestThreshold_NonUTCInput(t *testing.T) {
	// Local-zone input is converted to UTC before the window is applied.
	zone := time.FixedZone("UTC+10", 10*60*60)
	now := time.Date(2024, 6, 1, 8, 0, 0, 0, zone) // 2024-05-31T22:00:00Z

	got := Threshold(now, 90)
	want := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

	if !got.Equal(want) {
		t.Errorf("Threshold(%v, 90) = %v, want %v", now, got, want)
	}
	if got.Location() != time.UTC {
		t.Errorf("expected UTC location, got %v", got.Location())
	}
}

func TestThreshold_MonotonicInDaysBack(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	prev := Threshold(now, 0)
	for days := 1; days <= 400; days++ {
		cur := Threshold(now, days)
		if cur.After(prev) {
			t.Fatalf("Threshold not monotonic: daysBack=%d gave %v, later than %v", days, cur, prev)
		}
		prev = cur
	}
}

func TestFormatInstant(t *testing.T) {
	ts := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)
	if got := FormatInstant(ts); got != "2024-03-03T00:00:00Z" {
		t.Errorf("FormatInstant = %q, want %q", got, "2024-03-03T00:00:00Z")
	}

	// Non-UTC values are rendered in UTC.
	zone := time.FixedZone("UTC-5", -5*60*60)
	ts = time.Date(2024, 3, 2, 19, 0, 0, 0, zone)
	if got := FormatInstant(ts); got != "2024-03-03T00:00:00Z" {
		t.Errorf("FormatInstant(non-UTC) = %q, want %q", got, "2024-03-03T00:00:00Z")
	}
}

func TestFilterPredicate(t *testing.T) {
	threshold := time.Date(2024, 3, 3, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name            string
		includeEnabled  bool
		includeDisabled bool
		want            string
		wantOK          bool
	}{
		{
			name:            "both states in scope omits enablement clause",
			includeEnabled:  true,
			includeDisabled: true,
			want:            "approximateLastSignInDateTime le 2024-03-03T00:00:00Z",
			wantOK:          true,
		},
		{
			name:            "enabled only",
			includeEnabled:  true,
			includeDisabled: false,
			want:            "approximateLastSignInDateTime le 2024-03-03T00:00:00Z and accountEnabled eq true",
			wantOK:          true,
		},
		{
			name:            "disabled only",
			includeEnabled:  false,
			includeDisabled: true,
			want:            "approximateLastSignInDateTime le 2024-03-03T00:00:00Z and accountEnabled eq false",
			wantOK:          true,
		},
		{
			name:            "neither state short-circuits",
			includeEnabled:  false,
			includeDisabled: false,
			want:            "",
			wantOK:          false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FilterPredicate(threshold, tt.includeEnabled, tt.includeDisabled)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("filter = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEvaluate(t *testing.T) {
	enabled := domain.Device{ID: "d1", DisplayName: "LAPTOP-01", AccountEnabled: true}
	disabled := domain.Device{ID: "d2", DisplayName: "LAPTOP-02", AccountEnabled: false}

	tests := []struct {
		name       string
		device     domain.Device
		cfg        Config
		mode       Mode
		wantAction Action
		wantNote   string
	}{
		{
			name:       "enabled device dry-run disable",
			device:     enabled,
			cfg:        Config{IncludeEnabled: true, IncludeDisabled: true, DryRun: true},
			mode:       ModeDisable,
			wantAction: ActionMutate,
			wantNote:   "would be disabled",
		},
		{
			name:       "enabled device committed disable",
			device:     enabled,
			cfg:        Config{IncludeEnabled: true, IncludeDisabled: true},
			mode:       ModeDisable,
			wantAction: ActionMutate,
			wantNote:   "disabled",
		},
		{
			name:       "enabled device dry-run delete",
			device:     enabled,
			cfg:        Config{IncludeEnabled: true, IncludeDisabled: true, DryRun: true},
			mode:       ModeDelete,
			wantAction: ActionMutate,
			wantNote:   "would be deleted",
		},
		{
			name:       "enabled device committed delete",
			device:     enabled,
			cfg:        Config{IncludeEnabled: true, IncludeDisabled: true},
			mode:       ModeDelete,
			wantAction: ActionMutate,
			wantNote:   "deleted",
		},
		{
			name:       "disabled device is audited not mutated",
			device:     disabled,
			cfg:        Config{IncludeEnabled: true, IncludeDisabled: true},
			mode:       ModeDelete,
			wantAction: ActionAuditOnly,
			wantNote:   "already disabled",
		},
		{
			name:       "enabled device out of scope",
			device:     enabled,
			cfg:        Config{IncludeEnabled: false, IncludeDisabled: true},
			mode:       ModeDisable,
			wantAction: ActionExcluded,
			wantNote:   "excluded by configuration",
		},
		{
			name:       "disabled device out of scope",
			device:     disabled,
			cfg:        Config{IncludeEnabled: true, IncludeDisabled: false},
			mode:       ModeDisable,
			wantAction: ActionExcluded,
			wantNote:   "excluded by configuration",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.device, tt.cfg, tt.mode)
			if got.Action != tt.wantAction {
				t.Errorf("action = %q, want %q", got.Action, tt.wantAction)
			}
			if got.Note != tt.wantNote {
				t.Errorf("note = %q, want %q", got.Note, tt.wantNote)
			}
		})
	}
}

func TestEvaluate_NeverMutatesDisabledDevices(t *testing.T) {
	// Regardless of configuration or mode, a disabled device must never
	// be classified for mutation.
	disabled := domain.Device{ID: "d2", AccountEnabled: false}

	for _, includeEnabled := range []bool{true, false} {
		for _, includeDisabled := range []bool{true, false} {
			for _, dryRun := range []bool{true, false} {
				for _, mode := range []Mode{ModeDisable, ModeDelete} {
					cfg := Config{IncludeEnabled: includeEnabled, IncludeDisabled: includeDisabled, DryRun: dryRun}
					if got := Evaluate(disabled, cfg, mode); got.Action == ActionMutate {
						t.Fatalf("disabled device classified for mutation under %+v mode=%s", cfg, mode)
					}
				}
			}
		}
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.DaysBack != 90 {
		t.Errorf("DaysBack = %d, want 90", cfg.DaysBack)
	}
	if !cfg.IncludeEnabled || !cfg.IncludeDisabled {
		t.Errorf("expected both enablement states in scope by default, got %+v", cfg)
	}
	if !cfg.DryRun {
		t.Error("expected DryRun to default to true")
	}
	if cfg.ExportFolder != "" {
		t.Errorf("expected empty ExportFolder (resolved to temp dir later), got %q", cfg.ExportFolder)
	}
}

func TestVacuous(t *testing.T) {
	if (Config{IncludeEnabled: true, IncludeDisabled: true}).Vacuous() {
		t.Error("both states in scope reported vacuous")
	}
	if (Config{IncludeEnabled: true}).Vacuous() || (Config{IncludeDisabled: true}).Vacuous() {
		t.Error("single state in scope reported vacuous")
	}
	if !(Config{}).Vacuous() {
		t.Error("neither state in scope not reported vacuous")
	}
}

func TestMutationNote_UnknownModeFallsBackToDisable(t *testing.T) {
	// An unrecognized mode behaves like disable rather than panicking;
	// commands only construct the two known modes.
	got := Evaluate(domain.Device{AccountEnabled: true}, Config{IncludeEnabled: true, DryRun: true}, Mode("bogus"))
	if !strings.Contains(got.Note, "disabled") {
		t.Errorf("unexpected note for unknown mode: %q", got.Note)
	}
}
