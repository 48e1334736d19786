// Package mockplayer is a deterministic Stream Manager test double: it
// implements streammanager.Provider by replaying a scripted sequence of
// events instead of calling a real language-model provider, so integration
// tests can drive a full Stream Manager run without network access.
package mockplayer

import (
	"context"
	"fmt"

	"mux/internal/streammanager"
)

// Scenario is one scripted run: the events Stream replays, in order, for
// any request (requests are not inspected).
type Scenario struct {
	Name   string
	Events []streammanager.ProviderEvent
}

// Player replays a fixed set of named scenarios. The zero value has no
// scenarios; use New or Register to add them.
type Player struct {
	scenarios map[string]Scenario
	active    string
}

// New builds a Player that will replay the named scenario on every Stream
// call until SetActive changes it.
func New(scenarios ...Scenario) *Player {
	p := &Player{scenarios: make(map[string]Scenario, len(scenarios))}
	for _, s := range scenarios {
		p.scenarios[s.Name] = s
	}
	if len(scenarios) > 0 {
		p.active = scenarios[0].Name
	}
	return p
}

// Register adds or replaces a named scenario.
func (p *Player) Register(s Scenario) {
	if p.scenarios == nil {
		p.scenarios = make(map[string]Scenario)
	}
	p.scenarios[s.Name] = s
}

// SetActive selects which registered scenario future Stream calls replay.
func (p *Player) SetActive(name string) error {
	if _, ok := p.scenarios[name]; !ok {
		return fmt.Errorf("mockplayer: unknown scenario %q", name)
	}
	p.active = name
	return nil
}

// Stream implements streammanager.Provider, replaying the active scenario's
// events onto an unbuffered channel that closes once they're all sent. A
// cancelled ctx stops the replay goroutine before the remaining events are
// pushed, mirroring a real provider honoring cancellation mid-stream.
func (p *Player) Stream(ctx context.Context, req streammanager.StreamRequest) (<-chan streammanager.ProviderEvent, error) {
	scenario, ok := p.scenarios[p.active]
	if !ok {
		return nil, fmt.Errorf("mockplayer: no active scenario registered")
	}

	ch := make(chan streammanager.ProviderEvent)
	go func() {
		defer close(ch)
		for _, ev := range scenario.Events {
			select {
			case <-ctx.Done():
				return
			case ch <- ev:
			}
		}
	}()
	return ch, nil
}

// TextScenario builds a scenario that streams text in the given chunks and
// completes normally, for tests that don't care about tool calls.
func TextScenario(name string, chunks ...string) Scenario {
	events := make([]streammanager.ProviderEvent, 0, len(chunks)+1)
	for _, c := range chunks {
		events = append(events, streammanager.ProviderEvent{Kind: streammanager.ProviderTextDelta, Delta: c})
	}
	events = append(events, streammanager.ProviderEvent{Kind: streammanager.ProviderDone})
	return Scenario{Name: name, Events: events}
}
