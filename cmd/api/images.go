package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"venuedir/internal/directory"
)

const maxUploadBytes = 32 * 1024 * 1024

// venueForm holds the files attached to a multipart venue payload. Close
// must be called once the uploads are consumed.
type venueForm struct {
	Logo    *directory.Upload
	Photos  []directory.Upload
	closers []io.Closer
}

func (f *venueForm) Close() {
	for _, c := range f.closers {
		c.Close()
	}
}

// parseVenueForm decodes the "venue" JSON part into data, validates it and
// opens the attached logo/photos files.
func (app *application) parseVenueForm(w http.ResponseWriter, r *http.Request, data any) (*venueForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}

	if err := json.Unmarshal([]byte(r.FormValue("venue")), data); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}

	if err := Validate.Struct(data); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	photoHeaders := r.MultipartForm.File["photos"]
	if len(photoHeaders) > directory.MaxVenuePhotos {
		return nil, fmt.Errorf("maximum %d photos allowed", directory.MaxVenuePhotos)
	}

	form := &venueForm{}

	if logoHeaders := r.MultipartForm.File["logo"]; len(logoHeaders) > 0 {
		file, err := logoHeaders[0].Open()
		if err != nil {
			return nil, fmt.Errorf("open logo: %w", err)
		}
		form.closers = append(form.closers, file)
		form.Logo = &directory.Upload{File: file, Filename: logoHeaders[0].Filename}
	}

	for _, header := range photoHeaders {
		file, err := header.Open()
		if err != nil {
			form.Close()
			return nil, fmt.Errorf("open photo: %w", err)
		}
		form.closers = append(form.closers, file)
		form.Photos = append(form.Photos, directory.Upload{File: file, Filename: header.Filename})
	}

	return form, nil
}

// parseSingleImage pulls one optional image file out of a multipart form
// whose JSON payload lives under jsonField.
func (app *application) parseSingleImage(w http.ResponseWriter, r *http.Request, jsonField, fileField string, data any) (*directory.Upload, io.Closer, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, nil, fmt.Errorf("parse form: %w", err)
	}

	if err := json.Unmarshal([]byte(r.FormValue(jsonField)), data); err != nil {
		return nil, nil, fmt.Errorf("json unmarshal: %w", err)
	}

	if err := Validate.Struct(data); err != nil {
		return nil, nil, fmt.Errorf("validation failed: %w", err)
	}

	headers := r.MultipartForm.File[fileField]
	if len(headers) == 0 {
		return nil, nil, nil
	}

	file, err := headers[0].Open()
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", fileField, err)
	}
	return &directory.Upload{File: file, Filename: headers[0].Filename}, file, nil
}
