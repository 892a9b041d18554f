package tgevents

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gotd/td/tg"
)

func testDocument(attrs ...tg.DocumentAttributeClass) *tg.Document {
	return &tg.Document{
		ID:         123456789,
		AccessHash: -987654321,
		DCID:       2,
		Attributes: attrs,
	}
}

func voiceAttr() *tg.DocumentAttributeAudio {
	a := &tg.DocumentAttributeAudio{}
	a.SetVoice(true)
	return a
}

func roundAttr() *tg.DocumentAttributeVideo {
	a := &tg.DocumentAttributeVideo{}
	a.SetRoundMessage(true)
	return a
}

func TestDocumentType(t *testing.T) {
	for _, tt := range []struct {
		name  string
		attrs []tg.DocumentAttributeClass
		want  int32
	}{
		{"voice", []tg.DocumentAttributeClass{voiceAttr()}, fileTypeVoice},
		{"audio", []tg.DocumentAttributeClass{&tg.DocumentAttributeAudio{}}, fileTypeAudio},
		{"round", []tg.DocumentAttributeClass{roundAttr()}, fileTypeRound},
		{"video", []tg.DocumentAttributeClass{&tg.DocumentAttributeVideo{}}, fileTypeVideo},
		{"sticker", []tg.DocumentAttributeClass{&tg.DocumentAttributeSticker{}}, fileTypeSticker},
		{"animated", []tg.DocumentAttributeClass{&tg.DocumentAttributeAnimated{}}, fileTypeAnimated},
		{"plain", nil, fileTypeDocument},
		{"filename only", []tg.DocumentAttributeClass{&tg.DocumentAttributeFilename{FileName: "a.bin"}}, fileTypeDocument},
		{
			"first recognized wins",
			[]tg.DocumentAttributeClass{&tg.DocumentAttributeVideo{}, &tg.DocumentAttributeAnimated{}},
			fileTypeVideo,
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, documentType(testDocument(tt.attrs...)))
		})
	}
}

func TestPackBotFileIDInputs(t *testing.T) {
	doc := testDocument(&tg.DocumentAttributeVideo{})

	mediaDoc := &tg.MessageMediaDocument{}
	mediaDoc.SetDocument(doc)

	fromMedia, ok := PackBotFileID(mediaDoc)
	require.True(t, ok)
	fromDoc, ok := PackBotFileID(doc)
	require.True(t, ok)
	require.Equal(t, fromMedia, fromDoc)

	// Media without a packable payload.
	_, ok = PackBotFileID(&tg.MessageMediaDocument{})
	require.False(t, ok)
	_, ok = PackBotFileID(&tg.MessageMediaPhoto{})
	require.False(t, ok)
	_, ok = PackBotFileID(&tg.MessageMediaGeo{})
	require.False(t, ok)
	_, ok = PackBotFileID(nil)
	require.False(t, ok)
}

func TestPackPhoto(t *testing.T) {
	photo := &tg.Photo{
		ID:         555,
		AccessHash: 777,
		DCID:       4,
		Sizes: []tg.PhotoSizeClass{
			&tg.PhotoStrippedSize{Type: "i"},
			&tg.PhotoSize{Type: "x", W: 800, H: 600},
		},
	}
	id, ok := PackBotFileID(photo)
	require.True(t, ok)
	require.NotEmpty(t, id)

	// A photo with only a stripped thumbnail cannot be re-sent.
	_, ok = PackBotFileID(&tg.Photo{
		ID:    556,
		Sizes: []tg.PhotoSizeClass{&tg.PhotoStrippedSize{Type: "i"}},
	})
	require.False(t, ok)
}

func TestFileIDDocumentRoundTrip(t *testing.T) {
	for _, tt := range []struct {
		name string
		doc  *tg.Document
	}{
		{"voice", testDocument(voiceAttr())},
		{"video", testDocument(&tg.DocumentAttributeVideo{})},
		{"sticker", testDocument(&tg.DocumentAttributeSticker{})},
		{"plain", testDocument()},
	} {
		t.Run(tt.name, func(t *testing.T) {
			packed, ok := PackBotFileID(tt.doc)
			require.True(t, ok)

			media, err := ResolveBotFileID(packed)
			require.NoError(t, err)
			resolved, ok := media.(*tg.MessageMediaDocument)
			require.True(t, ok)
			docClass, ok := resolved.GetDocument()
			require.True(t, ok)
			doc := docClass.(*tg.Document)
			require.Equal(t, tt.doc.ID, doc.ID)
			require.Equal(t, tt.doc.AccessHash, doc.AccessHash)
			require.Equal(t, tt.doc.DCID, doc.DCID)

			// Packing the resolved media yields the same ID.
			repacked, ok := PackBotFileID(media)
			require.True(t, ok)
			require.Equal(t, packed, repacked)
		})
	}
}

func TestFileIDPhotoResolve(t *testing.T) {
	photo := &tg.Photo{
		ID:         555,
		AccessHash: 777,
		DCID:       4,
		Sizes:      []tg.PhotoSizeClass{&tg.PhotoSize{Type: "x"}},
	}
	packed, ok := PackBotFileID(photo)
	require.True(t, ok)

	media, err := ResolveBotFileID(packed)
	require.NoError(t, err)
	resolved, ok := media.(*tg.MessageMediaPhoto)
	require.True(t, ok)
	photoClass, ok := resolved.GetPhoto()
	require.True(t, ok)
	p := photoClass.(*tg.Photo)
	require.Equal(t, int64(555), p.ID)
	require.Equal(t, int64(777), p.AccessHash)
	require.Equal(t, 4, p.DCID)
}

func TestResolveBotFileIDInvalid(t *testing.T) {
	_, err := ResolveBotFileID("not!base64!")
	require.Error(t, err)

	_, err = ResolveBotFileID("")
	require.Error(t, err)

	// Valid base64 but not a packed file ID.
	_, err = ResolveBotFileID(encodeTelegramBase64([]byte{1, 2, 3}))
	require.Error(t, err)
}

func TestRLECodec(t *testing.T) {
	for _, tt := range []struct {
		name    string
		decoded []byte
		encoded []byte
	}{
		{"no zeros", []byte{1, 2, 3}, []byte{1, 2, 3}},
		{"single run", []byte{1, 0, 0, 0, 2}, []byte{1, 0, 3, 2}},
		{"trailing run", []byte{5, 0, 0}, []byte{5, 0, 2}},
		{"leading zero", []byte{0, 9}, []byte{0, 1, 9}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.encoded, rleEncode(tt.decoded))
			require.Equal(t, tt.decoded, rleDecode(tt.encoded))
		})
	}
}
