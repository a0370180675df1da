package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/arsipsurat/internal/logger"
	"github.com/patric-chuzhbe/arsipsurat/internal/models"
)

// Form fields of the letter write endpoints.
const (
	fieldSender  = "pengirim"
	fieldNumber  = "nomor_surat"
	fieldDate    = "tanggal_surat"
	fieldSubject = "perihal"
	fieldYear    = "tahun"
	fieldUnitIDs = "unit_ids"
	fieldFile    = "file_surat"
)

type letterCreatedResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id_surat"`
}

// letterForm is a parsed letter write request. Close releases the upload and
// any temporary files the multipart parser created.
type letterForm struct {
	input  models.LetterInput
	upload *models.Upload
	file   multipart.File
	form   *multipart.Form
}

func (f *letterForm) Close() {
	if f.file != nil {
		_ = f.file.Close()
	}
	if f.form != nil {
		_ = f.form.RemoveAll()
	}
}

func pathID(request *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(request, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// parseUnitIDs reads the unit_ids field, a JSON array of ids given either as
// numbers or as numeric strings. An empty field means no units.
func parseUnitIDs(value string) ([]int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return []int64{}, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(value), &raw); err != nil {
		return nil, &models.ValidationError{Err: fmt.Errorf("%s: %w", fieldUnitIDs, err)}
	}

	result := make([]int64, 0, len(raw))
	for _, item := range raw {
		text := strings.Trim(string(item), `"`)
		id, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, &models.ValidationError{Err: fmt.Errorf("%s: %q is not an id", fieldUnitIDs, text)}
		}
		result = append(result, id)
	}

	return result, nil
}

func (router *Router) parseLetterForm(response http.ResponseWriter, request *http.Request) (*letterForm, error) {
	request.Body = http.MaxBytesReader(response, request.Body, router.maxUploadSize+multipartOverhead)

	result := &letterForm{}
	err := request.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = request.ParseForm()
	}
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, fmt.Errorf("%w: request body over %d bytes", models.ErrFileTooLarge, maxBytesErr.Limit)
		}
		return nil, fmt.Errorf("%w: %v", errBadRequestBody, err)
	}
	result.form = request.MultipartForm

	year := 0
	if value := strings.TrimSpace(request.FormValue(fieldYear)); value != "" {
		year, err = strconv.Atoi(value)
		if err != nil {
			result.Close()
			return nil, &models.ValidationError{Err: fmt.Errorf("%s: %q is not a year", fieldYear, value)}
		}
	}

	unitIDs, err := parseUnitIDs(request.FormValue(fieldUnitIDs))
	if err != nil {
		result.Close()
		return nil, err
	}

	result.input = models.LetterInput{
		Sender:  strings.TrimSpace(request.FormValue(fieldSender)),
		Number:  strings.TrimSpace(request.FormValue(fieldNumber)),
		Date:    strings.TrimSpace(request.FormValue(fieldDate)),
		Subject: strings.TrimSpace(request.FormValue(fieldSubject)),
		Year:    year,
		UnitIDs: unitIDs,
	}

	if request.MultipartForm == nil {
		return result, nil
	}

	file, header, err := request.FormFile(fieldFile)
	if errors.Is(err, http.ErrMissingFile) {
		return result, nil
	}
	if err != nil {
		result.Close()
		return nil, fmt.Errorf("%w: %v", errBadRequestBody, err)
	}
	result.file = file
	result.upload = &models.Upload{
		Filename: header.Filename,
		Size:     header.Size,
		Content:  file,
	}

	return result, nil
}

// letterFilter reads the listing query. Absent parameters are zero, which
// the service treats as "no filter" or the default.
func letterFilter(request *http.Request) (models.LetterFilter, error) {
	query := request.URL.Query()
	filter := models.LetterFilter{
		UnitCode: strings.TrimSpace(query.Get("unit")),
		Search:   strings.TrimSpace(query.Get("search")),
	}

	positive := []struct {
		name   string
		target *int
	}{
		{"tahun", &filter.Year},
		{"page", &filter.Page},
		{"limit", &filter.Limit},
	}
	for _, param := range positive {
		value := strings.TrimSpace(query.Get(param.name))
		if value == "" {
			continue
		}
		number, err := strconv.Atoi(value)
		if err != nil || number <= 0 {
			return models.LetterFilter{}, &models.ValidationError{
				Err: fmt.Errorf("%s must be a positive integer, got %q", param.name, value),
			}
		}
		*param.target = number
	}

	return filter, nil
}

// GetApisurat lists letters page by page, optionally filtered by year, unit
// code and a search term.
func (router *Router) GetApisurat(response http.ResponseWriter, request *http.Request) {
	filter, err := letterFilter(request)
	if err != nil {
		writeError(response, request, err)
		return
	}

	page, err := router.service.ListLetters(request.Context(), filter)
	if err != nil {
		writeError(response, request, err)
		return
	}
	if page.Data == nil {
		page.Data = []models.Letter{}
	}

	writeJSON(response, http.StatusOK, page)
}

// GetApisuratid returns one letter.
func (router *Router) GetApisuratid(response http.ResponseWriter, request *http.Request) {
	letterID, ok := pathID(request)
	if !ok {
		writeError(response, request, models.ErrLetterNotFound)
		return
	}

	letter, err := router.service.GetLetter(request.Context(), letterID)
	if err != nil {
		writeError(response, request, err)
		return
	}

	writeJSON(response, http.StatusOK, letter)
}

// PostApisurat archives a letter from a multipart form.
func (router *Router) PostApisurat(response http.ResponseWriter, request *http.Request) {
	form, err := router.parseLetterForm(response, request)
	if err != nil {
		writeError(response, request, err)
		return
	}
	defer form.Close()

	letterID, err := router.service.CreateLetter(request.Context(), form.input, form.upload)
	if err != nil {
		writeError(response, request, err)
		return
	}

	writeJSON(response, http.StatusCreated, letterCreatedResponse{
		Message: "Surat berhasil ditambahkan",
		ID:      letterID,
	})
}

// PutApisuratid replaces a letter. Without a new file the old attachment stays.
func (router *Router) PutApisuratid(response http.ResponseWriter, request *http.Request) {
	letterID, ok := pathID(request)
	if !ok {
		writeError(response, request, models.ErrLetterNotFound)
		return
	}

	form, err := router.parseLetterForm(response, request)
	if err != nil {
		writeError(response, request, err)
		return
	}
	defer form.Close()

	if err := router.service.UpdateLetter(request.Context(), letterID, form.input, form.upload); err != nil {
		writeError(response, request, err)
		return
	}

	writeMessage(response, http.StatusOK, "Surat berhasil diupdate")
}

// DeleteApisuratid deletes a letter with its attachment.
func (router *Router) DeleteApisuratid(response http.ResponseWriter, request *http.Request) {
	letterID, ok := pathID(request)
	if !ok {
		writeError(response, request, models.ErrLetterNotFound)
		return
	}

	if err := router.service.DeleteLetter(request.Context(), letterID); err != nil {
		writeError(response, request, err)
		return
	}

	writeMessage(response, http.StatusOK, "Surat berhasil dihapus")
}

// GetApidashboardstats returns the dashboard aggregates.
func (router *Router) GetApidashboardstats(response http.ResponseWriter, request *http.Request) {
	stats, err := router.service.Stats(request.Context())
	if err != nil {
		writeError(response, request, err)
		return
	}

	writeJSON(response, http.StatusOK, stats)
}

// GetUploads streams a stored attachment.
func (router *Router) GetUploads(response http.ResponseWriter, request *http.Request) {
	object, err := router.service.OpenAttachment(request.Context(), chi.URLParam(request, "name"))
	if err != nil {
		writeError(response, request, err)
		return
	}
	defer object.Body.Close()

	response.Header().Set("Content-Type", object.ContentType)
	if object.Size > 0 {
		response.Header().Set("Content-Length", strconv.FormatInt(object.Size, 10))
	}
	if !object.ModTime.IsZero() {
		response.Header().Set("Last-Modified", object.ModTime.UTC().Format(http.TimeFormat))
	}
	response.WriteHeader(http.StatusOK)

	if _, err := io.Copy(response, object.Body); err != nil {
		logger.Log.Debugln("Error calling the `io.Copy()`: ", zap.Error(err))
	}
}
