package registry

// ButtonMapRef identifies a button map by the hash of its name plus its
// position in the loaded table, grounded on
// original_source/button_maps.cpp's ButtonMapRef/BM_ButtonMapRefForHash.
type ButtonMapRef struct {
	Hash  uint32
	Index int
}

func (r ButtonMapRef) valid() bool { return r.Hash != 0 }

// ButtonAction is one entry of a button map: the physical event that
// fires it (endpoint, cluster, command, payload) and the buttonevent
// value the registry publishes to state/buttonevent when it matches.
type ButtonAction struct {
	Endpoint    uint8
	ClusterID   uint16
	CommandID   uint8
	PayloadByte uint8 // 0 if the command carries no discriminating payload
	ButtonEvent int
}

// ButtonMap is a named table of ButtonActions shared across every device
// that declares the same button layout (e.g. most Hue/Lutron/Xiaomi
// switches reuse a handful of maps).
type ButtonMap struct {
	Ref     ButtonMapRef
	Name    string
	Actions []ButtonAction
}

// ButtonProduct associates a product identity hash with the button map
// it should use, so a newly matched device can look its map up in O(1)
// without re-walking every ButtonMap's own identity.
type ButtonProduct struct {
	ProductHash  uint32
	ButtonMapRef ButtonMapRef
}

// ButtonMapRefForHash finds the ButtonMapRef whose name hash matches, or
// the zero (invalid) ref if none do.
func ButtonMapRefForHash(nameHash uint32, maps []ButtonMap) ButtonMapRef {
	for _, bm := range maps {
		if bm.Ref.Hash == nameHash {
			return bm.Ref
		}
	}
	return ButtonMapRef{}
}

// ButtonMapForRef resolves a ref back to its ButtonMap, validating that
// the table entry at Index still carries the same Hash (guards against a
// stale ref surviving a table reload).
func ButtonMapForRef(ref ButtonMapRef, maps []ButtonMap) (ButtonMap, bool) {
	if !ref.valid() || ref.Index < 0 || ref.Index >= len(maps) {
		return ButtonMap{}, false
	}
	bm := maps[ref.Index]
	if bm.Ref.Hash != ref.Hash {
		return ButtonMap{}, false
	}
	return bm, true
}

// ButtonMapForProduct resolves a product identity hash to its ButtonMap
// via the product->ref->map indirection (SPEC_FULL §4.13 supplemented
// feature, grounded on BM_ButtonMapForProduct).
func ButtonMapForProduct(productHash uint32, maps []ButtonMap, products []ButtonProduct) (ButtonMap, bool) {
	var ref ButtonMapRef
	for _, p := range products {
		if p.ProductHash == productHash {
			ref = p.ButtonMapRef
			break
		}
	}
	if !ref.valid() {
		return ButtonMap{}, false
	}
	return ButtonMapForRef(ref, maps)
}

// Match finds the ButtonAction triggered by an incoming command, if any.
func (bm ButtonMap) Match(endpoint uint8, clusterID uint16, commandID, payloadByte uint8) (ButtonAction, bool) {
	for _, a := range bm.Actions {
		if a.Endpoint == endpoint && a.ClusterID == clusterID && a.CommandID == commandID && a.PayloadByte == payloadByte {
			return a, true
		}
	}
	return ButtonAction{}, false
}
