package domain

import (
	"testing"

	"pgregory.net/rapid"
)

func genValidTaskName() *rapid.Generator[string] {
	return rapid.StringMatching(`[a-z][a-z0-9_-]{0,20}(:[a-z0-9_]{1,10})?`)
}

// TestTaskName_GeneratedNamesValidate checks that well-formed names always validate
func TestTaskName_GeneratedNamesValidate(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		value := genValidTaskName().Draw(t, "name")

		name, err := NewTaskName(value)
		if err != nil {
			t.Fatalf("name %q should validate: %v", value, err)
		}
		if name.Target() == "" && name.Base() != value {
			t.Fatalf("name without target should be its own base: %q", value)
		}
	})
}

// TestTaskName_BaseTargetRoundTrip checks Base and Target reassemble the name
func TestTaskName_BaseTargetRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		name := TaskName(genValidTaskName().Draw(t, "name"))

		rebuilt := name.Base()
		if name.Target() != "" {
			rebuilt += ":" + name.Target()
		}
		if rebuilt != name.String() {
			t.Fatalf("round trip of %q produced %q", name, rebuilt)
		}
	})
}
