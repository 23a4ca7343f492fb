package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repoverify/repoverify/internal/config"
	"github.com/repoverify/repoverify/internal/pulp"
	"github.com/repoverify/repoverify/internal/unit"
	"github.com/repoverify/repoverify/internal/utils"
)

// fakeServer is a minimal in-memory stand-in for the repository server. It
// accepts the create/upload/publish call sequence and serves a canned
// metadata document at publish time.
type fakeServer struct {
	mu sync.Mutex

	metadataXML string
	failImports bool

	repos    map[string]bool
	imported []map[string]interface{}
	deleted  []string
}

func (f *fakeServer) handler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("POST /pulp/api/v2/repositories/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		id := body["id"].(string)
		f.mu.Lock()
		f.repos[id] = true
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"id": id})
	})

	mux.HandleFunc("DELETE /pulp/api/v2/repositories/{id}/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.deleted = append(f.deleted, r.PathValue("id"))
		f.mu.Unlock()
		w.Write([]byte("null"))
	})

	mux.HandleFunc("POST /pulp/api/v2/repositories/{id}/distributors/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":                  "yum_distributor",
			"distributor_type_id": "yum_distributor",
			"config":              map[string]string{"relative_url": r.PathValue("id")},
		})
	})

	mux.HandleFunc("POST /pulp/api/v2/content/uploads/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"upload_id": "u-1"})
	})
	mux.HandleFunc("DELETE /pulp/api/v2/content/uploads/u-1/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("null"))
	})

	mux.HandleFunc("POST /pulp/api/v2/repositories/{id}/actions/import_upload/", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		f.imported = append(f.imported, body)
		f.mu.Unlock()
		taskID := "t-import"
		if f.failImports {
			taskID = "t-broken"
		}
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"spawned_tasks": []map[string]string{{"task_id": taskID}},
		})
	})

	mux.HandleFunc("POST /pulp/api/v2/repositories/{id}/actions/publish/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"spawned_tasks": []map[string]string{{"task_id": "t-publish"}},
		})
	})

	mux.HandleFunc("GET /pulp/api/v2/tasks/{id}/", func(w http.ResponseWriter, r *http.Request) {
		state := pulp.TaskStateFinished
		flag := true
		if r.PathValue("id") == "t-broken" {
			state = pulp.TaskStateError
			flag = false
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"task_id": r.PathValue("id"),
			"state":   state,
			"result":  map[string]bool{"success_flag": flag},
		})
	})

	mux.HandleFunc("GET /pulp/repos/{repo}/repodata/repomd.xml", func(w http.ResponseWriter, r *http.Request) {
		kind := "group"
		if strings.Contains(f.metadataXML, "<updates>") {
			kind = "updateinfo"
		}
		compressed, err := utils.GzipCompress([]byte(f.metadataXML))
		require.NoError(t, err)
		sum, err := utils.CalculateChecksum(compressed, "sha256")
		require.NoError(t, err)
		fmt.Fprintf(w, `<repomd><data type="%s"><checksum type="sha256">%s</checksum><location href="repodata/metadata.xml.gz"/></data></repomd>`, kind, sum)
	})
	mux.HandleFunc("GET /pulp/repos/{repo}/repodata/metadata.xml.gz", func(w http.ResponseWriter, r *http.Request) {
		compressed, err := utils.GzipCompress([]byte(f.metadataXML))
		require.NoError(t, err)
		w.Write(compressed)
	})

	return mux
}

func newTestScenario(t *testing.T, fake *fakeServer) *Scenario {
	t.Helper()
	fake.repos = map[string]bool{}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	client, err := pulp.New(
		config.Server{BaseURL: srv.URL, Username: "admin", Password: "admin"},
		config.Polling{Interval: time.Millisecond, Timeout: time.Second},
	)
	require.NoError(t, err)

	policy, err := NewDefectPolicy("")
	require.NoError(t, err)

	return &Scenario{Client: client, Defects: policy}
}

func TestRunGroupsEndToEnd(t *testing.T) {
	fake := &fakeServer{metadataXML: `<?xml version="1.0" encoding="UTF-8"?>
<comps>
  <group>
    <id>birds</id>
    <default>false</default>
    <uservisible>false</uservisible>
    <packagelist/>
  </group>
</comps>`}
	s := newTestScenario(t, fake)

	result, err := s.RunGroups(context.Background(), []unit.PackageGroup{{ID: "birds"}})
	require.NoError(t, err)

	assert.Equal(t, PhaseVerified, result.Phase)
	assert.Empty(t, result.Discrepancies)
	assert.Empty(t, result.Skipped)
	require.Len(t, result.Tasks["birds"], 1)
	assert.Equal(t, pulp.TaskStateFinished, result.Tasks["birds"][0].State)

	// The import carried the repo-scoped unit key.
	require.Len(t, fake.imported, 1)
	unitKey := fake.imported[0]["unit_key"].(map[string]interface{})
	assert.Equal(t, "birds", unitKey["id"])
	assert.Equal(t, result.RepoID, unitKey["repo_id"])
	assert.Equal(t, unit.TypePackageGroup, fake.imported[0]["unit_type_id"])

	require.NoError(t, s.Cleanup(context.Background(), result))
	assert.Equal(t, []string{result.RepoID}, fake.deleted)
}

func TestRunGroupsReportsDiscrepancies(t *testing.T) {
	fake := &fakeServer{metadataXML: `<comps>
  <group>
    <id>birds</id>
    <default>true</default>
    <uservisible>false</uservisible>
    <packagelist/>
  </group>
</comps>`}
	s := newTestScenario(t, fake)

	result, err := s.RunGroups(context.Background(), []unit.PackageGroup{{ID: "birds"}})
	require.NoError(t, err)

	assert.Equal(t, PhaseVerified, result.Phase)
	require.Len(t, result.Discrepancies, 1)
	assert.Equal(t, "default", result.Discrepancies[0].Field)
}

func TestRunErrataEndToEnd(t *testing.T) {
	fake := &fakeServer{metadataXML: `<?xml version="1.0" encoding="UTF-8"?>
<updates>
  <update>
    <id>RV-2026:0001</id>
    <description>Fixes a thing.</description>
  </update>
</updates>`}
	s := newTestScenario(t, fake)

	result, err := s.RunErrata(context.Background(), []unit.Erratum{
		{ID: "RV-2026:0001", Description: "Fixes a thing."},
	})
	require.NoError(t, err)

	assert.Equal(t, PhaseVerified, result.Phase)
	assert.Empty(t, result.Discrepancies)

	require.Len(t, fake.imported, 1)
	unitKey := fake.imported[0]["unit_key"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"id": "RV-2026:0001"}, unitKey)
	assert.Equal(t, unit.TypeErratum, fake.imported[0]["unit_type_id"])
}

func TestRunGroupsImportTaskFailure(t *testing.T) {
	fake := &fakeServer{failImports: true, metadataXML: `<comps/>`}
	s := newTestScenario(t, fake)

	result, err := s.RunGroups(context.Background(), []unit.PackageGroup{{ID: "birds"}})
	require.Error(t, err)

	assert.True(t, IsPrecondition(err))
	assert.Contains(t, err.Error(), "t-broken")
	assert.Equal(t, PhaseCreated, result.Phase)
	assert.Nil(t, result.Document)
}

func TestScenarioErrorFormatting(t *testing.T) {
	err := &ScenarioError{Kind: ErrPrecondition, Op: "publish", Err: fmt.Errorf("boom")}
	assert.Equal(t, "[Precondition] publish: boom", err.Error())
	assert.True(t, IsPrecondition(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsPrecondition(fmt.Errorf("plain")))
}
