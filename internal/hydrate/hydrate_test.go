package hydrate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestDecoderFromFixtures(t *testing.T) {
	fx := loadFixture(t, "hydrate_profile.json")

	for _, tc := range fx.Cases {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			options := buildOptions(tc)
			decoder := NewDecoder[profileSettings](options...)

			ctx := Context{Path: tc.Path}

			result, err := decoder.Decode(ctx, tc.Input)

			if tc.ExpectErr != "" {
				if err == nil {
					t.Fatalf("expected error %q, got nil", tc.ExpectErr)
				}
				if !strings.Contains(err.Error(), tc.ExpectErr) {
					t.Fatalf("expected error containing %q, got %v", tc.ExpectErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}

			if !reflect.DeepEqual(tc.Expect, result) {
				t.Fatalf("decoded snapshot mismatch:\nwant: %#v\n got: %#v", tc.Expect, result)
			}
		})
	}
}

func buildOptions(tc fixtureCase) []DecoderOption[profileSettings] {
	options := []DecoderOption[profileSettings]{}

	for _, optName := range tc.Options {
		switch optName {
		case "use_number":
			options = append(options, WithUseNumber[profileSettings]())
		case "disallow_unknown":
			options = append(options, WithDisallowUnknownFields[profileSettings]())
		}
	}

	for _, hookName := range tc.PreHooks {
		switch hookName {
		case "theme_normalize":
			options = append(options, WithPreHook[profileSettings](themeNormalizePreHook))
		}
	}

	for _, hookName := range tc.PostHooks {
		switch hookName {
		case "ensure_tag":
			options = append(options, WithPostHook[profileSettings](ensureTagPostHook))
		}
	}

	if tc.CustomDecoder != "" {
		switch tc.CustomDecoder {
		case "snapshot_string":
			options = append(options, WithCustomDecoder[profileSettings](snapshotStringDecoder))
		}
	}

	return options
}

func themeNormalizePreHook(_ Context, payload map[string]any) (map[string]any, error) {
	value, ok := payload["theme"]
	if !ok {
		return payload, nil
	}
	text, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("theme must be a string, got %T", value)
	}
	payload["theme"] = strings.ToLower(strings.TrimSpace(text))
	return payload, nil
}

func ensureTagPostHook(ctx Context, snapshot *profileSettings) error {
	if snapshot == nil {
		return errors.New("snapshot is nil")
	}
	if len(snapshot.Tags) > 0 {
		return nil
	}
	snapshot.Tags = []string{fmt.Sprintf("state:%s", ctx.label())}
	return nil
}

func snapshotStringDecoder(ctx Context, payload map[string]any) (profileSettings, error) {
	var zero profileSettings
	raw, ok := payload["snapshot"].(string)
	if !ok || raw == "" {
		return zero, fmt.Errorf("missing snapshot string at %q", ctx.label())
	}
	var out profileSettings
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&out); err != nil {
		return zero, err
	}
	return out, nil
}

type fixture struct {
	Description string        `json:"description"`
	Cases       []fixtureCase `json:"cases"`
}

type fixtureCase struct {
	Name          string          `json:"name"`
	Path          string          `json:"path"`
	Input         map[string]any  `json:"input"`
	Expect        profileSettings `json:"expect"`
	ExpectErr     string          `json:"expectErr"`
	PreHooks      []string        `json:"preHooks"`
	PostHooks     []string        `json:"postHooks"`
	Options       []string        `json:"options"`
	CustomDecoder string          `json:"customDecoder"`
}

type profileSettings struct {
	Name        string        `json:"name"`
	Theme       string        `json:"theme"`
	Preferences preferences   `json:"preferences"`
	Limits      profileLimits `json:"limits"`
	Tags        []string      `json:"tags"`
}

type preferences struct {
	Notifications bool   `json:"notifications"`
	Locale        string `json:"locale"`
}

type profileLimits struct {
	Daily   int `json:"daily"`
	Monthly int `json:"monthly"`
}

func loadFixture(t *testing.T, name string) fixture {
	t.Helper()
	path := filepath.Join("..", "..", "testdata", name)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read hydrate fixture %q: %v", name, err)
	}
	var fx fixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		t.Fatalf("failed to unmarshal hydrate fixture %q: %v", name, err)
	}
	return fx
}
