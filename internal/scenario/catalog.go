// Package scenario loads the scene catalog used to decorate diff timelines.
//
// Catalogs are authored as Lua scripts so writers can generate or annotate
// scene lists without recompiling. A script returns an array of tables with
// string fields "id" and "label":
//
//	return {
//	    { id = "start", label = "Prologue" },
//	    { id = "n1", label = "The Fork in the Road" },
//	}
package scenario

import (
	"fmt"

	"github.com/Shopify/go-lua"
	apperrors "github.com/louisbranch/worldline.studio/internal/platform/errors"
)

// Scene is one catalog entry.
type Scene struct {
	ID    string
	Label string
}

// Catalog resolves scene labels by id.
type Catalog struct {
	scenes map[string]Scene
}

// FromScenes builds a catalog from in-memory scenes.
func FromScenes(scenes ...Scene) *Catalog {
	catalog := &Catalog{scenes: make(map[string]Scene, len(scenes))}
	for _, scene := range scenes {
		if scene.ID != "" {
			catalog.scenes[scene.ID] = scene
		}
	}
	return catalog
}

// Load runs a Lua catalog script and collects its scenes.
func Load(path string) (*Catalog, error) {
	state := lua.NewState()
	lua.OpenLibraries(state)

	if err := lua.LoadFile(state, path, ""); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeScenarioScriptInvalid, fmt.Sprintf("load scenario script %s", path), err)
	}
	if err := state.ProtectedCall(0, 1, 0); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeScenarioScriptInvalid, fmt.Sprintf("run scenario script %s", path), err)
	}
	if !state.IsTable(-1) {
		return nil, apperrors.New(apperrors.CodeScenarioScriptInvalid, "scenario script must return a table of scenes")
	}

	catalog := &Catalog{scenes: make(map[string]Scene)}
	for i := 1; ; i++ {
		state.RawGetInt(-1, i)
		if state.IsNil(-1) {
			state.Pop(1)
			break
		}
		if state.IsTable(-1) {
			scene := Scene{
				ID:    tableStringField(state, "id"),
				Label: tableStringField(state, "label"),
			}
			if scene.ID != "" {
				catalog.scenes[scene.ID] = scene
			}
		}
		state.Pop(1)
	}
	state.Pop(1)

	return catalog, nil
}

// Label returns the display label for a scene id.
func (c *Catalog) Label(id string) (string, bool) {
	if c == nil {
		return "", false
	}
	scene, ok := c.scenes[id]
	if !ok || scene.Label == "" {
		return "", false
	}
	return scene.Label, true
}

// Len reports the number of catalog entries.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.scenes)
}

// tableStringField reads a string field from the table at the top of the
// stack.
func tableStringField(state *lua.State, name string) string {
	state.Field(-1, name)
	value, _ := state.ToString(-1)
	state.Pop(1)
	return value
}
