package storage_test

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/geocoder89/univault/internal/storage"
)

func fileHeader(t *testing.T, filename, content string) *multipart.FileHeader {
	t.Helper()

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest("POST", "/", buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	if err := req.ParseMultipartForm(1 << 20); err != nil {
		t.Fatalf("parse multipart: %v", err)
	}

	return req.MultipartForm.File["file"][0]
}

func TestLocalStoreSaveAndRemove(t *testing.T) {
	dir := t.TempDir()

	store, err := storage.NewLocalStore(dir)

	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	ref, err := store.Save(fileHeader(t, "notes.PDF", "hello"))

	if err != nil {
		t.Fatalf("save: %v", err)
	}

	if !strings.HasPrefix(ref, "/uploads/") {
		t.Fatalf("unexpected file ref %q", ref)
	}

	if !strings.HasSuffix(ref, ".pdf") {
		t.Fatalf("extension not preserved (lowercased): %q", ref)
	}

	name := strings.TrimPrefix(ref, "/uploads/")

	data, err := os.ReadFile(filepath.Join(dir, name))

	if err != nil {
		t.Fatalf("read stored blob: %v", err)
	}

	if string(data) != "hello" {
		t.Fatalf("stored content %q", data)
	}

	if err := store.Remove(ref); err != nil {
		t.Fatalf("remove: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
		t.Fatalf("blob still present after remove: %v", err)
	}
}

func TestLocalStoreGeneratesUniqueNames(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())

	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	refA, err := store.Save(fileHeader(t, "same.pdf", "a"))
	if err != nil {
		t.Fatalf("save a: %v", err)
	}

	refB, err := store.Save(fileHeader(t, "same.pdf", "b"))
	if err != nil {
		t.Fatalf("save b: %v", err)
	}

	if refA == refB {
		t.Fatalf("same locator for two uploads: %q", refA)
	}
}

func TestLocalStoreDropsSuspiciousExtension(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())

	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	ref, err := store.Save(fileHeader(t, "../../etc/passwd.we?rd", "x"))

	if err != nil {
		t.Fatalf("save: %v", err)
	}

	name := strings.TrimPrefix(ref, "/uploads/")

	if strings.ContainsAny(name, "/?") {
		t.Fatalf("unsafe generated name %q", name)
	}
}

func TestLocalStoreRemoveRejectsPathTraversal(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir())

	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	for _, ref := range []string{"", "/uploads/", "/uploads/../escape", "/etc/passwd"} {
		if err := store.Remove(ref); err == nil {
			t.Fatalf("remove accepted bad ref %q", ref)
		}
	}
}
