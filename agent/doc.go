// Package agent defines the capability bundle contract shared by the
// dispatcher and all department bundles, plus the registry and the
// coordinator that moves a caller between departments.
//
// A bundle exposes a name, a domain tag, an instruction prompt and a set of
// tools. Tools return a tagged Outcome: either a spoken reply or a handoff
// request, never both. The coordinator resolves handoff targets through the
// registry so every transfer lands on a fresh bundle instance.
package agent
