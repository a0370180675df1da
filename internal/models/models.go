// Package models holds the domain types shared by the storage, service and
// router layers: letters, units, users, their wire shapes and the sentinel
// errors the layers exchange.
package models

import (
	"io"
	"time"
)

// Role names stored in users.role.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is a row of the credential store.
type User struct {
	ID           int64  `json:"id_user"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
}

// Unit is an organizational sub-division a letter can be routed to.
type Unit struct {
	ID   int64  `json:"id_unit"`
	Code string `json:"kode_unit" validate:"required,max=20"`
	Name string `json:"nama_unit" validate:"required,max=100"`
}

// Letter is an archived correspondence record as returned by the read path.
// UnitList carries the codes of the associated units joined with UnitListSeparator.
type Letter struct {
	ID        int64     `json:"id_surat"`
	Sender    string    `json:"pengirim"`
	Number    string    `json:"nomor_surat"`
	Date      Date      `json:"tanggal_surat"`
	Subject   string    `json:"perihal"`
	Year      int       `json:"tahun"`
	File      *string   `json:"file_surat"`
	CreatedAt time.Time `json:"created_at"`
	UnitList  string    `json:"unit_list"`
}

// UnitListSeparator joins unit codes in Letter.UnitList.
const UnitListSeparator = ", "

// LetterInput is the full-replace payload of letter create and update.
// The form tags name the multipart fields it is read from.
type LetterInput struct {
	Sender  string  `form:"pengirim" validate:"required,max=255"`
	Number  string  `form:"nomor_surat" validate:"required,max=100"`
	Date    string  `form:"tanggal_surat" validate:"required,datetime=2006-01-02"`
	Subject string  `form:"perihal" validate:"required"`
	Year    int     `form:"tahun" validate:"required,min=1900,max=9999"`
	UnitIDs []int64 `form:"unit_ids" validate:"dive,gt=0"`
}

// Upload is an attachment received with a letter write.
type Upload struct {
	Filename string
	Size     int64
	Content  io.Reader
}

// LetterFilter narrows ListLetters. Zero values mean "no filter".
type LetterFilter struct {
	Year     int
	UnitCode string
	Search   string
	Page     int
	Limit    int
}

// Offset returns the row offset of the filter's page.
func (f LetterFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

// LetterPage is a page of letters together with its pagination.
type LetterPage struct {
	Data       []Letter   `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// UnitLetterCount is one row of the per-unit dashboard breakdown.
type UnitLetterCount struct {
	Code  string `json:"kode_unit"`
	Name  string `json:"nama_unit"`
	Count int64  `json:"jumlah"`
}

// MonthLetterCount is one row of the per-month dashboard breakdown.
type MonthLetterCount struct {
	Month     int    `json:"bulan"`
	MonthName string `json:"nama_bulan"`
	Count     int64  `json:"jumlah"`
}

// DashboardStats is the aggregate served by the dashboard endpoint.
type DashboardStats struct {
	TotalLetters    int64              `json:"totalSurat"`
	LettersThisYear int64              `json:"suratTahunIni"`
	PerUnit         []UnitLetterCount  `json:"suratPerUnit"`
	PerMonth        []MonthLetterCount `json:"suratPerBulan"`
	Recent          []Letter           `json:"recentSurat"`
}

// Storage backends.
const (
	StorageTypeUnknown = iota
	StorageTypePostgresql
	StorageTypeSQLite
)

// File store backends.
const (
	FileStorageDisk = "disk"
	FileStorageS3   = "s3"
)

// LetterRecord is the set of letter columns written by the storage layer.
type LetterRecord struct {
	Sender  string
	Number  string
	Date    Date
	Subject string
	Year    int
	File    *string
}
