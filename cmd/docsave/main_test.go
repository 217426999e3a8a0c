package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/docsave/internal/config"
	"github.com/vango-dev/docsave/internal/errors"
	"github.com/vango-dev/docsave/pkg/sanitize"
	"github.com/vango-dev/docsave/pkg/snapshot"
)

const testDoc = `<html class="toc-sidebar"><head><title>T</title></head><body><p>A &amp; B</p></body></html>`

// writeConfig writes a docsave.json into a temp dir and returns its path.
func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.ConfigFileName)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// run executes the CLI with stdin and returns stdout, stderr and the error.
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestHTMLFromStdin(t *testing.T) {
	cfg := writeConfig(t, `{}`)
	stdout, stderr, err := run(t, testDoc, "html", "--config", cfg)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"<!DOCTYPE html>",
		`<meta charset="utf-8"/>`,
		`<meta name="generator" content="docsave ` + version + `"/>`,
		"<p>A &amp; B</p>",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "toc-sidebar") {
		t.Errorf("sidebar class was not removed:\n%s", stdout)
	}
	if !strings.Contains(stderr, sanitize.MissingCharsetWarning) {
		t.Errorf("stderr = %q, want the charset warning", stderr)
	}
}

func TestXHTMLFromFileToFile(t *testing.T) {
	cfg := writeConfig(t, `{"generator": "docsave-test"}`)
	dir := t.TempDir()
	in := filepath.Join(dir, "index.html")
	out := filepath.Join(dir, "index.xhtml")
	if err := os.WriteFile(in, []byte(testDoc), 0644); err != nil {
		t.Fatal(err)
	}

	stdout, _, err := run(t, "", "xhtml", "--config", cfg, "-o", out, in)
	if err != nil {
		t.Fatal(err)
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want empty", stdout)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`xmlns="http://www.w3.org/1999/xhtml"`, `content="docsave-test" />`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("output missing %q:\n%s", want, data)
		}
	}
}

func TestMissingInputFile(t *testing.T) {
	cfg := writeConfig(t, `{}`)
	_, _, err := run(t, "", "html", "--config", cfg, filepath.Join(t.TempDir(), "nope.html"))
	if !errors.HasCode(err, "E001") {
		t.Errorf("err = %v, want E001", err)
	}
}

func TestInvalidConfig(t *testing.T) {
	cfg := writeConfig(t, `{"sanitize": {"remove": "p["}}`)
	_, _, err := run(t, testDoc, "html", "--config", cfg)
	if !errors.HasCode(err, "E042") {
		t.Errorf("err = %v, want E042", err)
	}
}

func TestDiff(t *testing.T) {
	_, _, err := run(t, testDoc, "diff", "--config", writeConfig(t, `{}`))
	if !errors.HasCode(err, "E030") {
		t.Errorf("err = %v, want E030", err)
	}

	cfg := writeConfig(t, `{"diff": {"previousURI": "https://example.org/TR/old/"}}`)
	stdout, _, err := run(t, testDoc, "diff", "--config", cfg, "--url", "https://example.org/TR/new/index.html")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"name='base' value='https://example.org/TR/new/'",
		"name='oldfile' value='https://example.org/TR/old/'",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("diff page missing %q", want)
		}
	}
}

func TestEPub(t *testing.T) {
	cfg := writeConfig(t, `{}`)

	_, _, err := run(t, "", "epub", "--config", cfg)
	if !errors.HasCode(err, "E004") {
		t.Errorf("err = %v, want E004", err)
	}

	stdout, _, err := run(t, "", "epub", "--config", cfg, "--url", "https://example.org/TR/spec/")
	if err != nil {
		t.Fatal(err)
	}
	want := snapshot.EPubURL(snapshot.DefaultEPubGenerator, "https://example.org/TR/spec/") + "\n"
	if stdout != want {
		t.Errorf("stdout = %q, want %q", stdout, want)
	}
}

func TestSaveToDirectory(t *testing.T) {
	cfg := writeConfig(t, `{"diff": {"previousURI": "https://example.org/TR/old/"}}`)
	dir := filepath.Join(t.TempDir(), "out")

	stdout, _, err := run(t, testDoc, "save", "--config", cfg, "--dir", dir, "--menu")
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"index.html", "index.xhtml", "diff.html", "menu.html"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
		if !strings.Contains(stdout, name) {
			t.Errorf("stdout does not report %s:\n%s", name, stdout)
		}
	}
	if !strings.Contains(stdout, "EPUB: "+snapshot.DefaultEPubGenerator) {
		t.Errorf("stdout missing EPUB link:\n%s", stdout)
	}

	menu, err := os.ReadFile(filepath.Join(dir, "menu.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(menu), `id="respec-diff"`) {
		t.Errorf("menu missing diff entry:\n%s", menu)
	}
}

func TestSaveOnly(t *testing.T) {
	cfg := writeConfig(t, `{}`)
	dir := t.TempDir()

	if _, _, err := run(t, testDoc, "save", "--config", cfg, "--dir", dir, "--only", "xhtml"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "index.xhtml")); err != nil {
		t.Errorf("index.xhtml not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "index.html")); !os.IsNotExist(err) {
		t.Errorf("index.html should not be written, stat err = %v", err)
	}

	_, _, err := run(t, testDoc, "save", "--config", cfg, "--dir", dir, "--only", "pdf")
	if !errors.HasCode(err, "E060") {
		t.Errorf("err = %v, want E060", err)
	}
}

func TestFilterArtifacts(t *testing.T) {
	arts := []snapshot.Artifact{
		{ID: snapshot.IDHTML}, {ID: snapshot.IDXHTML}, {ID: snapshot.IDEPub},
	}

	tests := []struct {
		only []string
		want []string
	}{
		{nil, []string{snapshot.IDHTML, snapshot.IDXHTML, snapshot.IDEPub}},
		{[]string{"EPUB"}, []string{snapshot.IDEPub}},
		{[]string{"xhtml", " html"}, []string{snapshot.IDHTML, snapshot.IDXHTML}},
		{[]string{"diff"}, nil},
	}
	for _, tt := range tests {
		keep, err := parseKinds(tt.only)
		if err != nil {
			t.Fatal(err)
		}
		got := filterArtifacts(arts, keep)
		if len(got) != len(tt.want) {
			t.Errorf("filterArtifacts(%v) = %v", tt.only, got)
			continue
		}
		for i := range got {
			if got[i].ID != tt.want[i] {
				t.Errorf("filterArtifacts(%v)[%d] = %s, want %s", tt.only, i, got[i].ID, tt.want[i])
			}
		}
	}
}

func TestSaveRejectsUnknownKindBeforeReadingInput(t *testing.T) {
	// The config path does not exist: an E041 here would mean the
	// document was loaded before --only was checked.
	missing := filepath.Join(t.TempDir(), config.ConfigFileName)
	_, _, err := run(t, testDoc, "save", "--config", missing, "--only", "html,pdf")
	if !errors.HasCode(err, "E060") {
		t.Errorf("err = %v, want E060", err)
	}
}

// isolateAWS points the AWS shared files at dir and clears the
// environment the default credential chain reads.
func isolateAWS(t *testing.T, dir string) {
	t.Helper()
	t.Setenv("AWS_CONFIG_FILE", filepath.Join(dir, "config"))
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", filepath.Join(dir, "credentials"))
	for _, key := range []string{
		"AWS_PROFILE", "AWS_REGION", "AWS_DEFAULT_REGION",
		"AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY", "AWS_SESSION_TOKEN",
	} {
		t.Setenv(key, "")
	}
}

func TestS3ClientFromEnvironment(t *testing.T) {
	isolateAWS(t, t.TempDir())
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIDENV")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")

	ctx := context.Background()
	client, err := newS3Client(ctx, config.S3Config{
		Bucket:   "docs",
		Region:   "eu-west-1",
		Endpoint: "http://localhost:9000",
	})
	if err != nil {
		t.Fatal(err)
	}

	opts := client.Options()
	if opts.Region != "eu-west-1" {
		t.Errorf("Region = %q", opts.Region)
	}
	if opts.BaseEndpoint == nil || *opts.BaseEndpoint != "http://localhost:9000" {
		t.Errorf("BaseEndpoint = %v", opts.BaseEndpoint)
	}
	if !opts.UsePathStyle {
		t.Error("UsePathStyle = false with a custom endpoint")
	}
	creds, err := opts.Credentials.Retrieve(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if creds.AccessKeyID != "AKIDENV" {
		t.Errorf("AccessKeyID = %q", creds.AccessKeyID)
	}
}

func TestS3ClientFromSharedFiles(t *testing.T) {
	dir := t.TempDir()
	isolateAWS(t, dir)
	files := map[string]string{
		"config":      "[default]\nregion = ap-south-1\n",
		"credentials": "[default]\naws_access_key_id = AKIDFILE\naws_secret_access_key = secret\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0600); err != nil {
			t.Fatal(err)
		}
	}

	ctx := context.Background()
	client, err := newS3Client(ctx, config.S3Config{Bucket: "docs"})
	if err != nil {
		t.Fatal(err)
	}

	opts := client.Options()
	if opts.Region != "ap-south-1" {
		t.Errorf("Region = %q, want the shared config region", opts.Region)
	}
	if opts.BaseEndpoint != nil || opts.UsePathStyle {
		t.Errorf("endpoint override set without an endpoint: %v %v", opts.BaseEndpoint, opts.UsePathStyle)
	}
	creds, err := opts.Credentials.Retrieve(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if creds.AccessKeyID != "AKIDFILE" {
		t.Errorf("AccessKeyID = %q", creds.AccessKeyID)
	}
}

func TestVersionShort(t *testing.T) {
	stdout, _, err := run(t, "", "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if stdout != version+"\n" {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestHTTPURL(t *testing.T) {
	if got := httpURL("", 8080); got != "http://localhost:8080" {
		t.Errorf("httpURL = %q", got)
	}
	if got := httpURL("0.0.0.0", 9090); got != "http://0.0.0.0:9090" {
		t.Errorf("httpURL = %q", got)
	}
}
