package tgevents

import (
	"encoding/base64"
	"encoding/binary"
	"errors"

	"github.com/gotd/td/tg"
)

// Bot API compatible file identifiers. The packed string embeds the media
// type, DC, ID and access hash, run-length compressed and base64url
// encoded, so a file can be re-sent later without keeping the original
// media object around.

const fileIDVersion = 2

// Media type codes used inside packed file IDs.
const (
	fileTypePhoto    = 2
	fileTypeVoice    = 3
	fileTypeVideo    = 4
	fileTypeDocument = 5
	fileTypeSticker  = 8
	fileTypeAudio    = 9
	fileTypeAnimated = 10
	fileTypeRound    = 13
)

// PackBotFileID encodes media into a portable file ID string. It accepts
// *tg.MessageMediaDocument, *tg.MessageMediaPhoto, *tg.Document and
// *tg.Photo; anything else, including empty or unknown media, reports
// false.
func PackBotFileID(media any) (string, bool) {
	switch m := media.(type) {
	case *tg.MessageMediaDocument:
		doc, ok := m.GetDocument()
		if !ok {
			return "", false
		}
		d, ok := doc.(*tg.Document)
		if !ok {
			return "", false
		}
		return packDocument(d)
	case *tg.MessageMediaPhoto:
		photo, ok := m.GetPhoto()
		if !ok {
			return "", false
		}
		p, ok := photo.(*tg.Photo)
		if !ok {
			return "", false
		}
		return packPhoto(p)
	case *tg.Document:
		return packDocument(m)
	case *tg.Photo:
		return packPhoto(m)
	}
	return "", false
}

// documentType classifies a document by its first recognized attribute.
func documentType(doc *tg.Document) int32 {
	for _, attr := range doc.Attributes {
		switch a := attr.(type) {
		case *tg.DocumentAttributeAudio:
			if a.Voice {
				return fileTypeVoice
			}
			return fileTypeAudio
		case *tg.DocumentAttributeVideo:
			if a.RoundMessage {
				return fileTypeRound
			}
			return fileTypeVideo
		case *tg.DocumentAttributeSticker:
			return fileTypeSticker
		case *tg.DocumentAttributeAnimated:
			return fileTypeAnimated
		}
	}
	return fileTypeDocument
}

func packDocument(doc *tg.Document) (string, bool) {
	buf := make([]byte, 0, 25)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(documentType(doc)))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(doc.DCID))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(doc.ID))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(doc.AccessHash))
	buf = append(buf, fileIDVersion)
	return encodeTelegramBase64(rleEncode(buf)), true
}

func packPhoto(photo *tg.Photo) (string, bool) {
	// A photo without any downloadable size cannot be re-sent.
	if !photoHasSize(photo) {
		return "", false
	}
	buf := make([]byte, 0, 45)
	buf = binary.LittleEndian.AppendUint32(buf, fileTypePhoto)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(photo.DCID))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(photo.ID))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(photo.AccessHash))
	// Volume ID, secret and local ID are gone from the current photo
	// layout; the slots stay for compatibility with older readers.
	buf = binary.LittleEndian.AppendUint64(buf, 0)
	buf = binary.LittleEndian.AppendUint64(buf, 0)
	buf = binary.LittleEndian.AppendUint32(buf, 0)
	buf = append(buf, fileIDVersion)
	return encodeTelegramBase64(rleEncode(buf)), true
}

func photoHasSize(photo *tg.Photo) bool {
	for i := len(photo.Sizes) - 1; i >= 0; i-- {
		switch photo.Sizes[i].(type) {
		case *tg.PhotoSize, *tg.PhotoCachedSize, *tg.PhotoSizeProgressive:
			return true
		}
	}
	return false
}

// ResolveBotFileID is the inverse of PackBotFileID: it rebuilds a media
// object that can be attached to an outgoing message. Document attributes
// beyond the classifying one are not recoverable from the ID.
func ResolveBotFileID(fileID string) (tg.MessageMediaClass, error) {
	data, err := decodeTelegramBase64(fileID)
	if err != nil {
		return nil, errInvalidFileID
	}
	data = rleDecode(data)
	if len(data) == 0 || data[len(data)-1] != fileIDVersion {
		return nil, errInvalidFileID
	}
	data = data[:len(data)-1]
	if len(data) < 24 {
		return nil, errInvalidFileID
	}

	typ := int32(binary.LittleEndian.Uint32(data[0:4]))
	dc := int(binary.LittleEndian.Uint32(data[4:8]))
	id := int64(binary.LittleEndian.Uint64(data[8:16]))
	accessHash := int64(binary.LittleEndian.Uint64(data[16:24]))

	if typ == fileTypePhoto {
		if len(data) != 44 {
			return nil, errInvalidFileID
		}
		media := &tg.MessageMediaPhoto{}
		media.SetPhoto(&tg.Photo{
			ID:         id,
			AccessHash: accessHash,
			DCID:       dc,
		})
		return media, nil
	}

	if len(data) != 24 {
		return nil, errInvalidFileID
	}
	doc := &tg.Document{
		ID:         id,
		AccessHash: accessHash,
		DCID:       dc,
	}
	switch typ {
	case fileTypeVoice:
		attr := &tg.DocumentAttributeAudio{}
		attr.SetVoice(true)
		doc.Attributes = []tg.DocumentAttributeClass{attr}
	case fileTypeAudio:
		doc.Attributes = []tg.DocumentAttributeClass{&tg.DocumentAttributeAudio{}}
	case fileTypeRound:
		attr := &tg.DocumentAttributeVideo{}
		attr.SetRoundMessage(true)
		doc.Attributes = []tg.DocumentAttributeClass{attr}
	case fileTypeVideo:
		doc.Attributes = []tg.DocumentAttributeClass{&tg.DocumentAttributeVideo{}}
	case fileTypeSticker:
		doc.Attributes = []tg.DocumentAttributeClass{&tg.DocumentAttributeSticker{}}
	case fileTypeAnimated:
		doc.Attributes = []tg.DocumentAttributeClass{&tg.DocumentAttributeAnimated{}}
	case fileTypeDocument:
	default:
		return nil, errInvalidFileID
	}
	media := &tg.MessageMediaDocument{}
	media.SetDocument(doc)
	return media, nil
}

var errInvalidFileID = errors.New("tgevents: invalid file ID")

// rleEncode compresses runs of zero bytes as a zero byte followed by the
// run length. Packed IDs are mostly zeros in the reserved slots, so this
// keeps them short.
func rleEncode(data []byte) []byte {
	out := make([]byte, 0, len(data))
	var run byte
	for _, b := range data {
		if b == 0 {
			run++
			if run == 255 {
				out = append(out, 0, run)
				run = 0
			}
			continue
		}
		if run > 0 {
			out = append(out, 0, run)
			run = 0
		}
		out = append(out, b)
	}
	if run > 0 {
		out = append(out, 0, run)
	}
	return out
}

func rleDecode(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] != 0 {
			out = append(out, data[i])
			continue
		}
		if i+1 >= len(data) {
			break
		}
		i++
		for j := byte(0); j < data[i]; j++ {
			out = append(out, 0)
		}
	}
	return out
}

func encodeTelegramBase64(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

func decodeTelegramBase64(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}
