package drive

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/huhujiaju123-lab/bedding-inventory-calculator/internal/loader"
)

// Downloader pulls input spreadsheets out of one Drive folder.
type Downloader struct {
	service  *Service
	folderID string
}

// NewDownloader creates a new Downloader.
func NewDownloader(s *Service, folderID string) *Downloader {
	return &Downloader{service: s, folderID: folderID}
}

// Spreadsheets lists the folder's CSV, XLSX and native sheet files.
func (d *Downloader) Spreadsheets(ctx context.Context) ([]*File, error) {
	files, err := d.service.ListFiles(ctx, d.folderID)
	if err != nil {
		return nil, err
	}
	return spreadsheets(files), nil
}

// Fetch downloads the spreadsheet whose name or id is ref. A native sheet
// is named with an .xlsx extension so the loader decodes the export.
func (d *Downloader) Fetch(ctx context.Context, ref string) (loader.Source, error) {
	files, err := d.Spreadsheets(ctx)
	if err != nil {
		return loader.Source{}, err
	}

	f := pick(files, ref)
	if f == nil {
		return loader.Source{}, fmt.Errorf("drive file %q not found in folder", ref)
	}

	var buf bytes.Buffer
	if err := d.service.DownloadFile(ctx, f, &buf); err != nil {
		return loader.Source{}, err
	}
	return loader.Source{Name: localName(f), Data: buf.Bytes()}, nil
}

func spreadsheets(files []*File) []*File {
	var out []*File
	for _, f := range files {
		if f.MimeType == MimeGoogleSheet {
			out = append(out, f)
			continue
		}
		switch strings.ToLower(filepath.Ext(f.Name)) {
		case ".csv", ".xlsx":
			out = append(out, f)
		}
	}
	return out
}

func pick(files []*File, ref string) *File {
	for _, f := range files {
		if f.ID == ref {
			return f
		}
	}
	for _, f := range files {
		if f.Name == ref || strings.TrimSuffix(f.Name, filepath.Ext(f.Name)) == ref {
			return f
		}
	}
	return nil
}

func localName(f *File) string {
	if f.MimeType == MimeGoogleSheet && strings.ToLower(filepath.Ext(f.Name)) != ".xlsx" {
		return f.Name + ".xlsx"
	}
	return f.Name
}
