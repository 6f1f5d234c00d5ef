// Package convert prepares resume files for upload to the generative AI file
// API. Supported formats pass through untouched, DOCX files are reduced to
// plain text, and everything else is rejected with a typed error the caller
// can catch to proceed without the file.
package convert

import (
	"bytes"
	"fmt"

	"code.sajari.com/docconv"
	"github.com/gabriel-vasile/mimetype"
)

// MIME types the file API accepts without conversion. Detection is by
// content, not filename, so a mislabeled file still lands in the right
// branch.
var supportedMIMETypes = []string{
	"text/plain",
	"text/markdown",
	"application/pdf",
	"image/png",
	"image/jpeg",
}

const (
	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeDoc  = "application/msword"
	// Legacy .doc files are OLE compound documents. Sniffing cannot always
	// refine the container to application/msword, so the container type is
	// treated as .doc too.
	mimeOLE = "application/x-ole-storage"
)

// UnsupportedFileTypeError reports a file that cannot be converted to a
// format the file API accepts.
type UnsupportedFileTypeError struct {
	Filename string
	MIMEType string
	Reason   string
	Cause    error
}

func (e *UnsupportedFileTypeError) Error() string {
	msg := e.Reason
	if msg == "" {
		msg = fmt.Sprintf("File '%s' with MIME type '%s' is not supported for upload.", e.Filename, e.MIMEType)
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *UnsupportedFileTypeError) Unwrap() error {
	return e.Cause
}

// ToSupportedFormat sniffs the content type of a file and converts it when
// needed. It returns the (possibly converted) bytes and the MIME type to
// declare on upload.
func ToSupportedFormat(data []byte, filename string) ([]byte, string, error) {
	mtype := mimetype.Detect(data)

	for _, supported := range supportedMIMETypes {
		if mtype.Is(supported) {
			return data, supported, nil
		}
	}

	switch {
	case mtype.Is(mimeDOCX):
		text, _, err := docconv.ConvertDocx(bytes.NewReader(data))
		if err != nil {
			return nil, "", &UnsupportedFileTypeError{
				Filename: filename,
				MIMEType: mimeDOCX,
				Reason:   fmt.Sprintf("Failed to convert DOCX file '%s'.", filename),
				Cause:    err,
			}
		}
		return []byte(text), "text/plain", nil

	case mtype.Is(mimeDoc) || mtype.Is(mimeOLE):
		return nil, "", &UnsupportedFileTypeError{
			Filename: filename,
			MIMEType: mimeDoc,
			Reason:   fmt.Sprintf("Legacy .doc files are not supported. Please convert '%s' to DOCX or PDF first.", filename),
		}
	}

	return nil, "", &UnsupportedFileTypeError{Filename: filename, MIMEType: mtype.String()}
}
