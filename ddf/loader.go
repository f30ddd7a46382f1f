package ddf

import (
	"encoding/json"

	"github.com/dresden-mesh/meshgwd/drcerr"
)

// deviceJSON mirrors the devcap1 schema device files declare (SPEC_FULL
// §4.4 step 5): schema tag, manufacturer name(s), model id(s), optional
// matchexpr, optional product, status, sleeper flag, sub-devices and
// bindings.
type deviceJSON struct {
	Schema        string          `json:"schema"`
	Manufacturer  json.RawMessage `json:"manufacturername"` // string or []string
	ModelID       json.RawMessage `json:"modelid"`          // string or []string
	MatchExpr     string          `json:"matchexpr"`
	Product       string          `json:"product"`
	Status        string          `json:"status"`
	Sleeper       bool            `json:"sleeper"`
	SubDevices    []subDeviceJSON `json:"subdevices"`
	Bindings      []bindingJSON   `json:"bindings"`
}

type itemJSON struct {
	Name    string `json:"name"`
	Default string `json:"default"`
	Parse   string `json:"parse"`
	Read    string `json:"read"`
	Write   string `json:"write"`
	Public  bool   `json:"public"`
	Refresh struct {
		Interval int `json:"interval"`
	} `json:"refresh.interval"`
}

type subDeviceJSON struct {
	Type   string     `json:"type"`
	Suffix string     `json:"uniqueid"`
	Items  []itemJSON `json:"items"`
}

type bindingJSON struct {
	Src          string `json:"src"`
	Cluster      uint16 `json:"cl"`
	ConfigReport bool   `json:"report"`
	MinInterval  uint16 `json:"min_interval"`
	MaxInterval  uint16 `json:"max_interval"`
}

// ParseDeviceJSON decodes a single device.json file, applying constant
// expansion to every string field before it is interpreted. SubDevice
// item templates are returned un-merged with the generic table; callers
// pass each through Index.MergeItem once the generic templates for the
// current load are known.
func ParseDeviceJSON(raw []byte, constants *ConstantsTable) (Device, error) {
	var dj deviceJSON
	if err := json.Unmarshal(raw, &dj); err != nil {
		return Device{}, drcerr.Wrap(err, drcerr.Decode, "ddf.ParseDeviceJSON", "invalid device JSON")
	}
	if dj.Schema != "devcap1" {
		return Device{}, drcerr.New(drcerr.Unsupported, "ddf.ParseDeviceJSON", "unsupported schema tag").
			WithDetailsf("schema=%q", dj.Schema)
	}

	mfgNames, err := decodeStringOrList(dj.Manufacturer)
	if err != nil {
		return Device{}, drcerr.Wrap(err, drcerr.Decode, "ddf.ParseDeviceJSON", "invalid manufacturername")
	}
	modelIDs, err := decodeStringOrList(dj.ModelID)
	if err != nil {
		return Device{}, drcerr.Wrap(err, drcerr.Decode, "ddf.ParseDeviceJSON", "invalid modelid")
	}

	d := Device{
		SchemaTag:         dj.Schema,
		ManufacturerNames: mfgNames,
		ModelIDs:          modelIDs,
		MatchExpr:         constants.Expand(dj.MatchExpr),
		Product:           constants.Expand(dj.Product),
		Status:            parseStatus(dj.Status),
		Sleeper:           dj.Sleeper,
	}

	for _, sdj := range dj.SubDevices {
		sd := SubDevice{Type: sdj.Type, Suffix: sdj.Suffix}
		for _, ij := range sdj.Items {
			sd.Items = append(sd.Items, itemTemplateFromJSON(ij, constants))
		}
		d.SubDevices = append(d.SubDevices, sd)
	}
	for _, bj := range dj.Bindings {
		d.Bindings = append(d.Bindings, Binding{
			SrcEndpointSuffix: bj.Src,
			ClusterID:         bj.Cluster,
			ConfigReport:      bj.ConfigReport,
			ReportMinInterval: bj.MinInterval,
			ReportMaxInterval: bj.MaxInterval,
		})
	}

	return d, nil
}

func itemTemplateFromJSON(ij itemJSON, constants *ConstantsTable) ItemTemplate {
	return ItemTemplate{
		Parse:   constants.Expand(ij.Parse),
		Read:    constants.Expand(ij.Read),
		Write:   constants.Expand(ij.Write),
		Public:  ij.Public,
		Refresh: ij.Refresh.Interval,
	}
}

func parseStatus(s string) Status {
	switch s {
	case "Beta":
		return StatusBeta
	case "Draft":
		return StatusDraft
	default:
		return StatusGold
	}
}

// decodeStringOrList handles devcap1's "either a string or an array of
// strings" convention for manufacturername/modelid.
func decodeStringOrList(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	return list, nil
}
