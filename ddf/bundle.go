package ddf

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"io"

	"github.com/dresden-mesh/meshgwd/drcerr"
)

// Chunk IDs for the RIFF-style bundle container (SPEC_FULL §4.4 step 6).
var (
	fourccRIFF = [4]byte{'R', 'I', 'F', 'F'}
	fourccDDFB = [4]byte{'D', 'D', 'F', 'B'}
	fourccDESC = [4]byte{'D', 'E', 'S', 'C'}
	fourccEXTF = [4]byte{'E', 'X', 'T', 'F'}
	fourccSIGN = [4]byte{'S', 'I', 'G', 'N'}
	fourccDDFC = [4]byte{'D', 'D', 'F', 'C'}
)

// chunkHeader is the 8-byte little-endian RIFF chunk header: 4-byte ID
// followed by a 4-byte payload length.
type chunkHeader struct {
	ID   [4]byte
	Size uint32
}

// ExternalFile is one EXTF chunk payload: a typed blob bundled alongside
// the device description (a scripted hook, an image, or the device JSON
// itself typed DDFC).
type ExternalFile struct {
	Type [4]byte
	Name string
	Data []byte
}

// Signature is one SIGN chunk entry: a (public key, signature) pair over
// the DDFB chunk's SHA-256 identity.
type Signature struct {
	PublicKey [32]byte
	Sig       [64]byte
}

// Bundle is a fully parsed RIFF container, before signature verification
// or device-JSON decoding of its DDFC external file.
type Bundle struct {
	DDFB          []byte // raw DDFB chunk bytes, header + payload (the bundle identity input)
	DDFBSHA256    [32]byte
	Description   []byte // raw DESC chunk payload, undecoded
	ExternalFiles []ExternalFile
	Signatures    []Signature
}

// ParseBundle reads a RIFF(DDFB(DESC, EXTF*, SIGN*)) container.
// SPEC_FULL §4.4: "The SHA-256 of the DDFB chunk (header + payload) is
// the bundle identity."
func ParseBundle(data []byte) (*Bundle, error) {
	r := bytes.NewReader(data)

	top, err := readChunkHeader(r)
	if err != nil {
		return nil, err
	}
	if top.ID != fourccRIFF {
		return nil, drcerr.New(drcerr.Decode, "ddf.ParseBundle", "not a RIFF container")
	}

	// RIFF's payload begins with a 4-byte form type, which must be DDFB.
	var form [4]byte
	if _, err := io.ReadFull(r, form[:]); err != nil {
		return nil, drcerr.Wrap(err, drcerr.Decode, "ddf.ParseBundle", "truncated RIFF form type")
	}
	if form != fourccDDFB {
		return nil, drcerr.New(drcerr.Decode, "ddf.ParseBundle", "unexpected RIFF form type").
			WithDetailsf("form=%q", form)
	}

	ddfbPayloadLen := int(top.Size) - 4
	if ddfbPayloadLen < 0 {
		return nil, drcerr.New(drcerr.Decode, "ddf.ParseBundle", "RIFF chunk too small for its form type")
	}
	ddfbStart := len(data) - r.Len()
	ddfbPayload := make([]byte, ddfbPayloadLen)
	if _, err := io.ReadFull(r, ddfbPayload); err != nil {
		return nil, drcerr.Wrap(err, drcerr.Decode, "ddf.ParseBundle", "truncated DDFB payload")
	}

	// Bundle identity is computed over the DDFB chunk including its
	// 4-byte DDFB form marker, so re-slice from the original buffer.
	ddfbFull := data[ddfbStart-4 : ddfbStart+ddfbPayloadLen]
	identity := sha256.Sum256(ddfbFull)

	sub := bytes.NewReader(ddfbPayload)
	b := &Bundle{DDFB: ddfbFull, DDFBSHA256: identity}

	for sub.Len() > 0 {
		ch, err := readChunkHeader(sub)
		if err != nil {
			return nil, err
		}
		payload := make([]byte, ch.Size)
		if _, err := io.ReadFull(sub, payload); err != nil {
			return nil, drcerr.Wrap(err, drcerr.Decode, "ddf.ParseBundle", "truncated chunk payload").
				WithDetailsf("chunk=%q", ch.ID)
		}

		switch ch.ID {
		case fourccDESC:
			// DESC is the binary description; consumers decode it via its
			// own schema. We retain the raw payload unparsed here.
			b.Description = payload
		case fourccEXTF:
			ef, err := parseExternalFile(payload)
			if err != nil {
				return nil, err
			}
			b.ExternalFiles = append(b.ExternalFiles, ef)
		case fourccSIGN:
			sig, err := parseSignature(payload)
			if err != nil {
				return nil, err
			}
			b.Signatures = append(b.Signatures, sig)
		default:
			// Unknown chunk types are skipped for forward compatibility.
		}
	}

	return b, nil
}

func readChunkHeader(r *bytes.Reader) (chunkHeader, error) {
	var ch chunkHeader
	if _, err := io.ReadFull(r, ch.ID[:]); err != nil {
		return ch, drcerr.Wrap(err, drcerr.Decode, "ddf.readChunkHeader", "truncated chunk id")
	}
	if err := binary.Read(r, binary.LittleEndian, &ch.Size); err != nil {
		return ch, drcerr.Wrap(err, drcerr.Decode, "ddf.readChunkHeader", "truncated chunk size")
	}
	return ch, nil
}

// parseExternalFile decodes an EXTF payload: 4-byte type, 2-byte
// little-endian name length, name bytes, remaining bytes as data.
func parseExternalFile(payload []byte) (ExternalFile, error) {
	if len(payload) < 6 {
		return ExternalFile{}, drcerr.New(drcerr.Decode, "ddf.parseExternalFile", "EXTF chunk too short")
	}
	var typ [4]byte
	copy(typ[:], payload[:4])
	nameLen := int(binary.LittleEndian.Uint16(payload[4:6]))
	if 6+nameLen > len(payload) {
		return ExternalFile{}, drcerr.New(drcerr.Decode, "ddf.parseExternalFile", "EXTF name length overruns chunk")
	}
	name := string(payload[6 : 6+nameLen])
	dataStart := 6 + nameLen
	return ExternalFile{Type: typ, Name: name, Data: payload[dataStart:]}, nil
}

// parseSignature decodes a fixed 32-byte public key followed by a
// 64-byte ed25519 signature.
func parseSignature(payload []byte) (Signature, error) {
	if len(payload) != 96 {
		return Signature{}, drcerr.New(drcerr.Decode, "ddf.parseSignature", "SIGN chunk has unexpected size").
			WithDetailsf("size=%d want=96", len(payload))
	}
	var sig Signature
	copy(sig.PublicKey[:], payload[:32])
	copy(sig.Sig[:], payload[32:])
	return sig, nil
}

// IsDeviceJSON reports whether ef is the device.json typed EXTF entry.
func (ef ExternalFile) IsDeviceJSON() bool { return ef.Type == fourccDDFC }
