package mediaclient

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, New(server.URL, WithToken("test-token"))
}

func TestListSendsFiltersAndDecodesEnvelope(t *testing.T) {
	var gotPath, gotAuth string
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.String()
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"media":       []map[string]interface{}{{"id": "m1", "filename": "a.jpg"}},
			"totalMedia":  37,
			"totalPages":  2,
			"currentPage": 1,
		})
	})

	page, err := client.List(context.Background(), ListOptions{
		Page: 1, Limit: 24, Type: "image", Search: "sunset", FolderID: "root",
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	if gotAuth != "Bearer test-token" {
		t.Fatalf("expected bearer token header, got %q", gotAuth)
	}
	for _, want := range []string{"page=1", "limit=24", "type=image", "search=sunset", "folder_id=root"} {
		if !strings.Contains(gotPath, want) {
			t.Errorf("query missing %q: %s", want, gotPath)
		}
	}
	if page.TotalMedia != 37 || page.TotalPages != 2 {
		t.Fatalf("envelope not decoded: %+v", page)
	}
	if len(page.Media) != 1 || page.Media[0].ID != "m1" {
		t.Fatalf("media not decoded: %+v", page.Media)
	}
}

func TestErrorBodyBecomesAPIError(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "Media not found"})
	})

	_, err := client.Get(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected an error")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusNotFound || apiErr.Message != "Media not found" {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
	if !IsNotFound(err) {
		t.Fatal("IsNotFound should report true")
	}
}

func TestErrorWithoutJSONBodyFallsBackToText(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream broke"))
	})

	err := client.Delete(context.Background(), "m1")
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T (%v)", err, err)
	}
	if apiErr.Message != "upstream broke" {
		t.Fatalf("expected raw body as message, got %q", apiErr.Message)
	}
}

func TestUploadSendsMultipartAndReportsProgress(t *testing.T) {
	var gotFilename, gotCaption string
	var gotTags []string
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		file.Close()
		gotFilename = header.Filename
		gotCaption = r.FormValue("caption")
		gotTags = r.MultipartForm.Value["tags"]
		json.NewEncoder(w).Encode(map[string]interface{}{
			"media": map[string]interface{}{"id": "new-id", "filename": header.Filename},
		})
	})

	var percents []int
	item, err := client.Upload(context.Background(), UploadRequest{
		Filename: "photo.jpg",
		Reader:   bytes.NewReader(bytes.Repeat([]byte{0xAB}, 4096)),
		Caption:  "a caption",
		Tags:     []string{"travel", "summer"},
		Progress: func(p int) { percents = append(percents, p) },
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	if item.ID != "new-id" {
		t.Fatalf("unexpected media: %+v", item)
	}
	if gotFilename != "photo.jpg" || gotCaption != "a caption" {
		t.Fatalf("form fields not sent: filename=%q caption=%q", gotFilename, gotCaption)
	}
	if len(gotTags) != 2 {
		t.Fatalf("expected 2 tags, got %v", gotTags)
	}
	if len(percents) == 0 || percents[len(percents)-1] != 100 {
		t.Fatalf("progress should end at 100, got %v", percents)
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Fatalf("progress went backwards: %v", percents)
		}
	}
}

func TestSearchEscapesQuery(t *testing.T) {
	var gotQuery string
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		json.NewEncoder(w).Encode(map[string]interface{}{"media": []interface{}{}})
	})

	if _, err := client.Search(context.Background(), "50% off & more", ListOptions{}); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotQuery != "50% off & more" {
		t.Fatalf("query not round-tripped: %q", gotQuery)
	}
}

func TestBulkDownloadStreamsBody(t *testing.T) {
	archive := []byte("PK\x03\x04 fake zip bytes")
	var gotIDs []string
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			MediaIDs []string `json:"media_ids"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		gotIDs = body.MediaIDs
		w.Header().Set("Content-Type", "application/zip")
		w.Write(archive)
	})

	var buf bytes.Buffer
	if err := client.BulkDownload(context.Background(), []string{"a", "b"}, &buf); err != nil {
		t.Fatalf("BulkDownload: %v", err)
	}
	if !bytes.Equal(buf.Bytes(), archive) {
		t.Fatal("archive bytes were not streamed through")
	}
	if len(gotIDs) != 2 {
		t.Fatalf("ids not sent: %v", gotIDs)
	}
}

func TestFolderTreeDecodesNesting(t *testing.T) {
	_, client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"tree": []map[string]interface{}{
				{
					"ID": 1, "name": "Photos",
					"children": []map[string]interface{}{
						{"ID": 2, "name": "Holidays", "children": []interface{}{}},
					},
				},
			},
		})
	})

	tree, err := client.FolderTree(context.Background())
	if err != nil {
		t.Fatalf("FolderTree: %v", err)
	}
	if len(tree) != 1 || tree[0].Name != "Photos" {
		t.Fatalf("unexpected tree: %+v", tree)
	}
	if len(tree[0].Children) != 1 || tree[0].Children[0].Name != "Holidays" {
		t.Fatalf("children not decoded: %+v", tree[0].Children)
	}
}
