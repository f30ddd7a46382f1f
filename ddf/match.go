package ddf

import "github.com/dresden-mesh/meshgwd/drcerr"

// Policy is the device's attr/ddf_policy selection mode (SPEC_FULL §4.4).
type Policy uint8

const (
	PolicyLatestPreferStable Policy = iota // default
	PolicyRawJSON
	PolicyLatest
	PolicyPin
)

// Evaluator is the subset of the expression evaluator the matcher needs:
// evaluating a device's matchexpr against a resource in scope. Declared
// here (rather than importing package expr) to avoid a cycle, since expr
// itself resolves item values through package resource.
type Evaluator interface {
	EvalMatchExpr(expr string, manufacturer, model string) (bool, error)
}

// Select runs the SPEC_FULL §4.4 matching and selection algorithm: collect
// candidates for (manufacturer, model), filter by matchexpr, classify by
// origin, then apply the policy table. pinSHA256 is only consulted under
// PolicyPin. Returns drcerr.NotFound if nothing matches.
func Select(ix *Index, ev Evaluator, manufacturer, model string, policy Policy, pinSHA256 [32]byte) (Device, error) {
	all := ix.Candidates(manufacturer, model)

	var candidates []Device
	for _, d := range all {
		if d.MatchExpr != "" {
			ok, err := ev.EvalMatchExpr(d.MatchExpr, manufacturer, model)
			if err != nil || !ok {
				continue
			}
		}
		candidates = append(candidates, d)
	}
	if len(candidates) == 0 {
		return Device{}, drcerr.New(drcerr.NotFound, "ddf.Select", "no DDF candidate matches").
			WithDetailsf("manufacturer=%q model=%q", manufacturer, model)
	}

	switch policy {
	case PolicyRawJSON:
		return selectRawJSON(candidates)
	case PolicyLatest:
		return selectLatest(candidates, false)
	case PolicyPin:
		for _, d := range candidates {
			if d.SHA256 == pinSHA256 {
				return d, nil
			}
		}
		return Device{}, drcerr.New(drcerr.NotFound, "ddf.Select", "no candidate matches attr/ddf_hash")
	default: // PolicyLatestPreferStable
		if d, ok := newestOfOrigin(candidates, OriginStableBundle); ok {
			return d, nil
		}
		return selectLatest(candidates, false)
	}
}

// selectRawJSON: "pick the raw-JSON candidate; user location wins over
// system; non-Draft wins."
func selectRawJSON(candidates []Device) (Device, error) {
	var raw []Device
	for _, d := range candidates {
		if !d.Origin.IsBundle() {
			raw = append(raw, d)
		}
	}
	if len(raw) == 0 {
		return Device{}, drcerr.New(drcerr.NotFound, "ddf.selectRawJSON", "no raw-JSON candidate")
	}

	best := raw[0]
	for _, d := range raw[1:] {
		if rawJSONBetter(d, best) {
			best = d
		}
	}
	return best, nil
}

// rawJSONBetter reports whether candidate beats current under the
// raw_json policy's tie-break order: non-Draft beats Draft, and within
// an equal Draft-ness, user location wins over system.
func rawJSONBetter(candidate, current Device) bool {
	cDraft := candidate.Status == StatusDraft
	bDraft := current.Status == StatusDraft
	if cDraft != bDraft {
		return !cDraft // candidate wins only if it is the non-Draft one
	}
	cUser := candidate.Origin == OriginUserRawJSON
	bUser := current.Origin == OriginUserRawJSON
	if cUser != bUser {
		return cUser
	}
	return candidate.LastModified > current.LastModified
}

// selectLatest picks the newest among bundle candidates (stable/beta/user
// unless stableOnly narrows to stable_bundle), breaking ties by origin
// priority (user > system, per SPEC_FULL §4.4).
func selectLatest(candidates []Device, stableOnly bool) (Device, error) {
	var bundles []Device
	for _, d := range candidates {
		if !d.Origin.IsBundle() {
			continue
		}
		if stableOnly && d.Origin != OriginStableBundle {
			continue
		}
		bundles = append(bundles, d)
	}
	if len(bundles) == 0 {
		return Device{}, drcerr.New(drcerr.NotFound, "ddf.selectLatest", "no bundle candidate")
	}

	best := bundles[0]
	for _, d := range bundles[1:] {
		if d.LastModified > best.LastModified {
			best = d
			continue
		}
		if d.LastModified == best.LastModified && originPriority(d.Origin) > originPriority(best.Origin) {
			best = d
		}
	}
	return best, nil
}

func newestOfOrigin(candidates []Device, origin Origin) (Device, bool) {
	var best Device
	found := false
	for _, d := range candidates {
		if d.Origin != origin {
			continue
		}
		if !found || d.LastModified > best.LastModified {
			best = d
			found = true
		}
	}
	return best, found
}

// originPriority ranks user locations above system ones for tie-breaking;
// bundle-vs-bundle ties otherwise have no declared ordering in SPEC_FULL
// §4.4 beyond "user > system".
func originPriority(o Origin) int {
	switch o {
	case OriginUserRawJSON, OriginUserBundle:
		return 1
	default:
		return 0
	}
}
