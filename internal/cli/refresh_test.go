package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func resetRefreshFlagsForTest(t *testing.T) {
	t.Helper()
	prevScope := refreshScopeFlag
	prevExport := refreshExportFlag
	t.Cleanup(func() {
		refreshScopeFlag = prevScope
		refreshExportFlag = prevExport
	})
	refreshScopeFlag = ""
	refreshExportFlag = false
}

func TestRefreshReportsBothScopes(t *testing.T) {
	dir := t.TempDir()
	setupContext(t, testConfigTOML(t, filepath.Join(dir, "refs.bib")), map[string]string{
		"local.bib": `@misc{draft2025, title = {Draft}, year = {2025}}`,
	})
	resetRefreshFlagsForTest(t)
	jsonOutput = true

	out := captureStdout(t, func() {
		if err := refreshCmd.RunE(refreshCmd, nil); err != nil {
			t.Errorf("refresh: %v", err)
		}
	})

	resp := decodeResponse(t, out)
	if !resp.OK {
		t.Fatalf("expected ok=true, got %+v", resp)
	}
	scopes, ok := resp.Data.([]interface{})
	if !ok || len(scopes) != 2 {
		t.Fatalf("expected 2 scope reports, got %#v", resp.Data)
	}

	global, _ := scopes[0].(map[string]interface{})
	local, _ := scopes[1].(map[string]interface{})
	if global["scope"] != "global" || global["candidates"] != float64(2) {
		t.Errorf("unexpected global report: %#v", global)
	}
	if local["scope"] != "local" || local["candidates"] != float64(1) {
		t.Errorf("unexpected local report: %#v", local)
	}
}

func TestRefreshSingleScope(t *testing.T) {
	dir := t.TempDir()
	setupContext(t, testConfigTOML(t, filepath.Join(dir, "refs.bib")), nil)
	resetRefreshFlagsForTest(t)
	jsonOutput = true
	refreshScopeFlag = "global"

	out := captureStdout(t, func() {
		if err := refreshCmd.RunE(refreshCmd, nil); err != nil {
			t.Errorf("refresh: %v", err)
		}
	})

	resp := decodeResponse(t, out)
	scopes, ok := resp.Data.([]interface{})
	if !ok || len(scopes) != 1 {
		t.Fatalf("expected only the global scope, got %#v", resp.Data)
	}
}

func TestRefreshRejectsBadScope(t *testing.T) {
	dir := t.TempDir()
	setupContext(t, testConfigTOML(t, filepath.Join(dir, "refs.bib")), nil)
	resetRefreshFlagsForTest(t)
	refreshScopeFlag = "everything"

	if err := refreshCmd.RunE(refreshCmd, nil); err == nil {
		t.Fatal("expected error for unknown scope")
	}
}

func TestRefreshExportHookFailureAborts(t *testing.T) {
	dir := t.TempDir()
	cfgTOML := testConfigTOML(t, filepath.Join(dir, "refs.bib")) + `
[hook]
export = "echo nope >&2; exit 9"
`
	setupContext(t, cfgTOML, nil)
	resetRefreshFlagsForTest(t)
	jsonOutput = true
	refreshExportFlag = true

	out := captureStdout(t, func() {
		if err := refreshCmd.RunE(refreshCmd, nil); err != nil {
			t.Errorf("refresh in JSON mode returned %v", err)
		}
	})

	resp := decodeResponse(t, out)
	if resp.OK {
		t.Fatal("expected ok=false when the export hook fails")
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeHookFailed {
		t.Fatalf("expected code %q, got %+v", ErrCodeHookFailed, resp.Error)
	}
}

func TestRefreshExportHookRuns(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "exported")
	cfgTOML := testConfigTOML(t, filepath.Join(dir, "refs.bib")) + `
[hook]
export = "touch ` + marker + `"
`
	setupContext(t, cfgTOML, nil)
	resetRefreshFlagsForTest(t)
	jsonOutput = true
	refreshExportFlag = true

	captureStdout(t, func() {
		if err := refreshCmd.RunE(refreshCmd, nil); err != nil {
			t.Errorf("refresh: %v", err)
		}
	})

	if _, err := os.Stat(marker); err != nil {
		t.Fatalf("export hook did not run: %v", err)
	}
}
