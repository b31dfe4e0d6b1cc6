package media

const (
	contentTypeBinary = "application/octet-stream"
	extensionBinary   = "bin"
)

// Detect sniffs the image format from its leading bytes and returns the file
// extension and content type. Unknown or short payloads are reported as
// binary.
func Detect(data []byte) (extension, contentType string) {
	if len(data) < 4 {
		return extensionBinary, contentTypeBinary
	}
	switch {
	case data[0] == 0x89 && data[1] == 0x50:
		return "png", "image/png"
	case data[0] == 0xff && data[1] == 0xd8:
		return "jpg", "image/jpeg"
	case data[0] == 0x47 && data[1] == 0x49:
		return "gif", "image/gif"
	case data[0] == 0x52 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x46:
		return "webp", "image/webp"
	default:
		return extensionBinary, contentTypeBinary
	}
}
