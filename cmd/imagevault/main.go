package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

type client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

type imageResp struct {
	ID            int64  `json:"id"`
	EnvironmentID int64  `json:"environmentId"`
	ImageName     string `json:"imageName"`
	FileName      string `json:"fileName"`
	ContentType   string `json:"contentType"`
	FileSize      int64  `json:"fileSize"`
}

type ui struct {
	title func(a ...any) string
	ok    func(a ...any) string
	info  func(a ...any) string
	warn  func(a ...any) string
	err   func(a ...any) string
	dim   func(a ...any) string
}

type profile struct {
	BaseURL       string `yaml:"baseUrl"`
	EditToken     string `yaml:"editToken"`
	DownloadToken string `yaml:"downloadToken"`
	EnvironmentID int64  `yaml:"environmentId"`
}

type cliConfig struct {
	CurrentProfile string             `yaml:"currentProfile"`
	Profiles       map[string]profile `yaml:"profiles"`
}

func newUI() *ui {
	return &ui{
		title: color.New(color.FgHiCyan, color.Bold).SprintFunc(),
		ok:    color.New(color.FgGreen, color.Bold).SprintFunc(),
		info:  color.New(color.FgCyan).SprintFunc(),
		warn:  color.New(color.FgYellow).SprintFunc(),
		err:   color.New(color.FgRed, color.Bold).SprintFunc(),
		dim:   color.New(color.FgHiBlack).SprintFunc(),
	}
}

func (c *client) request(method, path string, body any) (int, []byte, error) {
	var buf *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		buf = bytes.NewReader(b)
	} else {
		buf = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, c.baseURL+path, buf)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out, nil
}

func main() {
	baseURL := getenv("IMAGEVAULT_BASE_URL", "http://localhost:8081")
	editToken := getenv("IMAGEVAULT_EDIT_TOKEN", "")
	downloadToken := getenv("IMAGEVAULT_DOWNLOAD_TOKEN", "")
	profileName := getenv("IMAGEVAULT_PROFILE", "")
	ui := newUI()

	root := &cobra.Command{
		Use:   "imagevault",
		Short: "imagevault CLI",
		Long:  "imagevault CLI for token management and image operations.",
	}
	root.SetHelpTemplate(helpTemplate(ui))
	root.SilenceUsage = true

	root.PersistentFlags().StringVar(&baseURL, "base-url", baseURL, "Base URL for imagevault")
	root.PersistentFlags().StringVar(&editToken, "edit-token", editToken, "Edit token")
	root.PersistentFlags().StringVar(&downloadToken, "download-token", downloadToken, "Download token")
	root.PersistentFlags().StringVar(&profileName, "profile", profileName, "Config profile")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, _, _ := loadConfig()
		active := resolveProfileName(profileName, cfg)
		prof := cfg.Profiles[active]

		flags := cmd.Flags()
		if !flags.Changed("base-url") {
			if v := strings.TrimSpace(os.Getenv("IMAGEVAULT_BASE_URL")); v != "" {
				baseURL = v
			} else if prof.BaseURL != "" {
				baseURL = prof.BaseURL
			}
		}
		if !flags.Changed("edit-token") && editToken == "" && prof.EditToken != "" {
			editToken = prof.EditToken
		}
		if !flags.Changed("download-token") && downloadToken == "" && prof.DownloadToken != "" {
			downloadToken = prof.DownloadToken
		}
		if !flags.Changed("profile") && profileName == "" && active != "" {
			profileName = active
		}
		return nil
	}

	root.AddCommand(initCmd(&profileName, ui))
	root.AddCommand(authCmd(&baseURL, &profileName, ui))
	root.AddCommand(imageCmd(&baseURL, &editToken, &downloadToken, ui))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.err("[ERROR]"), err.Error())
		os.Exit(1)
	}
}

func initCmd(profileName *string, ui *ui) *cobra.Command {
	var (
		baseURL  string
		envID    int64
		noPrompt bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize CLI config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cfgPath, err := loadConfig()
			if err != nil {
				return err
			}
			active := resolveProfileName(*profileName, cfg)
			prof := cfg.Profiles[active]

			if baseURL == "" {
				baseURL = prof.BaseURL
			}
			if baseURL == "" {
				baseURL = "http://localhost:8081"
			}
			if envID == 0 {
				envID = prof.EnvironmentID
			}

			if !noPrompt {
				reader := bufio.NewReader(os.Stdin)
				baseURL = prompt(reader, "Base URL", baseURL)
			}

			prof.BaseURL = strings.TrimSpace(baseURL)
			if envID > 0 {
				prof.EnvironmentID = envID
			}

			if cfg.Profiles == nil {
				cfg.Profiles = map[string]profile{}
			}
			cfg.Profiles[active] = prof
			if cfg.CurrentProfile == "" || *profileName != "" {
				cfg.CurrentProfile = active
			}

			if err := saveConfig(cfg, cfgPath); err != nil {
				return err
			}
			fmt.Printf("%s Initialized profile '%s' at %s\n", ui.ok("[OK]"), active, cfgPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Base URL for imagevault")
	cmd.Flags().Int64Var(&envID, "environment", 0, "Default environment id")
	cmd.Flags().BoolVar(&noPrompt, "no-prompt", false, "Disable interactive prompts")
	return cmd
}

func authCmd(baseURL *string, profileName *string, ui *ui) *cobra.Command {
	auth := &cobra.Command{
		Use:   "auth",
		Short: "Obtain and store access tokens",
	}

	var loginSecret string

	loginEdit := &cobra.Command{
		Use:   "login-edit",
		Short: "Obtain an edit token (upload and delete)",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := resolveSecret(loginSecret)
			if err != nil {
				return err
			}
			c := newClient(*baseURL, "")
			spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
			spin.Suffix = " Logging in..."
			spin.Start()
			status, resp, err := c.request("POST", "/v1/images/auth/login/edit", map[string]any{"secretKey": secret})
			spin.Stop()
			if err != nil {
				return err
			}
			if status >= 300 {
				return fmt.Errorf("login failed (%d): %s", status, string(resp))
			}
			tok, err := tokenFromResponse(resp)
			if err != nil {
				return err
			}
			if err := storeToken(*profileName, func(p *profile) { p.EditToken = tok }); err != nil {
				return err
			}
			fmt.Printf("%s Edit token stored (%s)\n", ui.ok("[OK]"), maskToken(tok))
			return nil
		},
	}
	loginEdit.Flags().StringVar(&loginSecret, "secret", "", "Login secret (prompted when omitted)")

	var (
		dlSecret string
		dlEnvID  int64
	)
	loginDownload := &cobra.Command{
		Use:   "login-download",
		Short: "Obtain a download token for an environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dlEnvID <= 0 {
				return errors.New("--environment is required")
			}
			secret, err := resolveSecret(dlSecret)
			if err != nil {
				return err
			}
			c := newClient(*baseURL, "")
			spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
			spin.Suffix = " Logging in..."
			spin.Start()
			status, resp, err := c.request("POST", "/v1/images/auth/login/download",
				map[string]any{"secretKey": secret, "environmentId": dlEnvID})
			spin.Stop()
			if err != nil {
				return err
			}
			if status >= 300 {
				return fmt.Errorf("login failed (%d): %s", status, string(resp))
			}
			tok, err := tokenFromResponse(resp)
			if err != nil {
				return err
			}
			if err := storeToken(*profileName, func(p *profile) {
				p.DownloadToken = tok
				p.EnvironmentID = dlEnvID
			}); err != nil {
				return err
			}
			fmt.Printf("%s Download token stored for environment %d (%s)\n", ui.ok("[OK]"), dlEnvID, maskToken(tok))
			return nil
		},
	}
	loginDownload.Flags().StringVar(&dlSecret, "secret", "", "Login secret (prompted when omitted)")
	loginDownload.Flags().Int64Var(&dlEnvID, "environment", 0, "Environment id")

	var validateToken string
	validate := &cobra.Command{
		Use:   "validate",
		Short: "Validate a token against the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(validateToken) == "" {
				return errors.New("--token is required")
			}
			c := newClient(*baseURL, "")
			status, resp, err := c.request("POST", "/v1/images/auth/validate", map[string]any{"token": validateToken})
			if err != nil {
				return err
			}
			if status >= 300 {
				return fmt.Errorf("validate failed (%d): %s", status, string(resp))
			}
			fmt.Println(string(resp))
			return nil
		},
	}
	validate.Flags().StringVar(&validateToken, "token", "", "Token to validate")

	show := &cobra.Command{
		Use:   "show",
		Short: "Show stored credentials (masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			active := resolveProfileName(*profileName, cfg)
			prof := cfg.Profiles[active]
			fmt.Printf("%s Profile: %s\n", ui.title("imagevault"), active)
			fmt.Printf("%s Base URL:       %s\n", ui.info("•"), emptyOr(prof.BaseURL, "<unset>"))
			fmt.Printf("%s Edit token:     %s\n", ui.info("•"), maskToken(prof.EditToken))
			fmt.Printf("%s Download token: %s\n", ui.info("•"), maskToken(prof.DownloadToken))
			fmt.Printf("%s Environment:    %d\n", ui.info("•"), prof.EnvironmentID)
			return nil
		},
	}

	clear := &cobra.Command{
		Use:   "clear",
		Short: "Clear stored tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := storeToken(*profileName, func(p *profile) {
				p.EditToken = ""
				p.DownloadToken = ""
			}); err != nil {
				return err
			}
			fmt.Printf("%s Tokens cleared\n", ui.ok("[OK]"))
			return nil
		},
	}

	auth.AddCommand(loginEdit, loginDownload, validate, show, clear)
	return auth
}

func imageCmd(baseURL, editToken, downloadToken *string, ui *ui) *cobra.Command {
	image := &cobra.Command{
		Use:   "image",
		Short: "Image operations",
	}

	var (
		upEnvID int64
		upName  string
		upFile  string
		upDesc  string
	)
	upload := &cobra.Command{
		Use:     "upload",
		Short:   "Upload an image",
		Example: "imagevault image upload --environment 42 --name banner --file ./banner.png",
		RunE: func(cmd *cobra.Command, args []string) error {
			if upEnvID <= 0 {
				return errors.New("--environment is required")
			}
			if strings.TrimSpace(upName) == "" {
				return errors.New("--name is required")
			}
			if strings.TrimSpace(upFile) == "" {
				return errors.New("--file is required")
			}
			tok := strings.TrimSpace(*editToken)
			if tok == "" {
				return errors.New("edit token is required (run `imagevault auth login-edit`)")
			}

			f, err := os.Open(upFile)
			if err != nil {
				return err
			}
			defer f.Close()
			info, err := f.Stat()
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			w := multipart.NewWriter(&buf)
			_ = w.WriteField("environmentId", fmt.Sprintf("%d", upEnvID))
			_ = w.WriteField("imageName", upName)
			if upDesc != "" {
				_ = w.WriteField("description", upDesc)
			}
			fw, err := w.CreateFormFile("file", filepath.Base(upFile))
			if err != nil {
				return err
			}
			bar := progressbar.DefaultBytes(info.Size(), "Reading "+filepath.Base(upFile))
			if _, err := io.Copy(io.MultiWriter(fw, bar), f); err != nil {
				return err
			}
			_ = w.Close()

			req, err := http.NewRequest(http.MethodPost, strings.TrimRight(*baseURL, "/")+"/v1/images", &buf)
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", w.FormDataContentType())
			req.Header.Set("Authorization", "Bearer "+tok)

			spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
			spin.Suffix = " Uploading..."
			spin.Start()
			resp, err := (&http.Client{Timeout: 2 * time.Minute}).Do(req)
			spin.Stop()
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			out, _ := io.ReadAll(resp.Body)
			if resp.StatusCode >= 300 {
				return fmt.Errorf("upload failed (%d): %s", resp.StatusCode, string(out))
			}
			var img imageResp
			if err := json.Unmarshal(out, &img); err != nil {
				fmt.Println(string(out))
				return nil
			}
			fmt.Printf("%s Uploaded: id=%d file=%s (%d bytes)\n", ui.ok("[OK]"), img.ID, img.FileName, img.FileSize)
			return nil
		},
	}
	upload.Flags().Int64Var(&upEnvID, "environment", 0, "Environment id")
	upload.Flags().StringVar(&upName, "name", "", "Image display name")
	upload.Flags().StringVar(&upFile, "file", "", "Path to the image file")
	upload.Flags().StringVar(&upDesc, "description", "", "Optional description")

	var listEnvID int64
	list := &cobra.Command{
		Use:   "list",
		Short: "List images in an environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			if listEnvID <= 0 {
				return errors.New("--environment is required")
			}
			tok := anyToken(*downloadToken, *editToken)
			if tok == "" {
				return errors.New("download token is required (run `imagevault auth login-download`)")
			}
			c := newClient(*baseURL, tok)
			spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
			spin.Suffix = " Fetching images..."
			spin.Start()
			status, resp, err := c.request("GET", fmt.Sprintf("/v1/images/environment/%d", listEnvID), nil)
			spin.Stop()
			if err != nil {
				return err
			}
			if status >= 300 {
				return fmt.Errorf("error (%d): %s", status, string(resp))
			}
			var out struct {
				Images []imageResp `json:"images"`
			}
			if err := json.Unmarshal(resp, &out); err != nil {
				fmt.Println(string(resp))
				return nil
			}
			if len(out.Images) == 0 {
				fmt.Println(ui.dim("no images"))
				return nil
			}
			for _, img := range out.Images {
				fmt.Printf("%s %-6d %-24s %-32s %s\n",
					ui.info("•"), img.ID, img.ImageName, img.FileName, ui.dim(fmt.Sprintf("%d bytes", img.FileSize)))
			}
			return nil
		},
	}
	list.Flags().Int64Var(&listEnvID, "environment", 0, "Environment id")

	var (
		tmpEnvID   int64
		tmpFile    string
		tmpMinutes int
	)
	tempURL := &cobra.Command{
		Use:   "temp-url",
		Short: "Issue a short-lived signed URL for a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tmpEnvID <= 0 {
				return errors.New("--environment is required")
			}
			if strings.TrimSpace(tmpFile) == "" {
				return errors.New("--file-name is required")
			}
			tok := anyToken(*downloadToken, *editToken)
			if tok == "" {
				return errors.New("download token is required (run `imagevault auth login-download`)")
			}
			c := newClient(*baseURL, tok)
			body := map[string]any{"environmentId": tmpEnvID, "fileName": tmpFile}
			if tmpMinutes > 0 {
				body["expirationMinutes"] = tmpMinutes
			}
			status, resp, err := c.request("POST", "/v1/images/temp-url", body)
			if err != nil {
				return err
			}
			if status >= 300 {
				return fmt.Errorf("error (%d): %s", status, string(resp))
			}
			var out struct {
				URL       string `json:"url"`
				ExpiresIn int    `json:"expiresIn"`
			}
			if err := json.Unmarshal(resp, &out); err != nil {
				fmt.Println(string(resp))
				return nil
			}
			fmt.Printf("%s %s %s\n", ui.ok("[OK]"), out.URL, ui.dim(fmt.Sprintf("(expires in %ds)", out.ExpiresIn)))
			return nil
		},
	}
	tempURL.Flags().Int64Var(&tmpEnvID, "environment", 0, "Environment id")
	tempURL.Flags().StringVar(&tmpFile, "file-name", "", "Stored file name")
	tempURL.Flags().IntVar(&tmpMinutes, "minutes", 0, "Expiration in minutes (server default when omitted)")

	var dlOut string
	download := &cobra.Command{
		Use:   "download <fileName>",
		Short: "Download an image file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fileName := args[0]
			tok := anyToken(*downloadToken, *editToken)
			if tok == "" {
				return errors.New("download token is required (run `imagevault auth login-download`)")
			}
			req, err := http.NewRequest(http.MethodGet,
				strings.TrimRight(*baseURL, "/")+"/v1/images/file/"+url.PathEscape(fileName), nil)
			if err != nil {
				return err
			}
			req.Header.Set("Authorization", "Bearer "+tok)

			spin := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
			spin.Suffix = " Downloading..."
			spin.Start()
			resp, err := (&http.Client{Timeout: 2 * time.Minute}).Do(req)
			spin.Stop()
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode >= 300 {
				out, _ := io.ReadAll(resp.Body)
				return fmt.Errorf("download failed (%d): %s", resp.StatusCode, string(out))
			}

			dst := dlOut
			if dst == "" {
				dst = fileName
			}
			f, err := os.Create(dst)
			if err != nil {
				return err
			}
			defer f.Close()
			bar := progressbar.DefaultBytes(resp.ContentLength, "Writing "+filepath.Base(dst))
			if _, err := io.Copy(io.MultiWriter(f, bar), resp.Body); err != nil {
				return err
			}
			fmt.Printf("%s Saved to %s\n", ui.ok("[OK]"), dst)
			return nil
		},
	}
	download.Flags().StringVar(&dlOut, "out", "", "Output path (defaults to the file name)")

	var (
		rnName string
	)
	rename := &cobra.Command{
		Use:   "rename <id>",
		Short: "Rename an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(rnName) == "" {
				return errors.New("--name is required")
			}
			tok := strings.TrimSpace(*editToken)
			if tok == "" {
				return errors.New("edit token is required (run `imagevault auth login-edit`)")
			}
			c := newClient(*baseURL, tok)
			status, resp, err := c.request("PATCH", "/v1/images/"+url.PathEscape(args[0])+"/name",
				map[string]any{"imageName": rnName})
			if err != nil {
				return err
			}
			if status >= 300 {
				return fmt.Errorf("error (%d): %s", status, string(resp))
			}
			fmt.Printf("%s Renamed to '%s'\n", ui.ok("[OK]"), rnName)
			return nil
		},
	}
	rename.Flags().StringVar(&rnName, "name", "", "New image name")

	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok := strings.TrimSpace(*editToken)
			if tok == "" {
				return errors.New("edit token is required (run `imagevault auth login-edit`)")
			}
			c := newClient(*baseURL, tok)
			status, resp, err := c.request("DELETE", "/v1/images/"+url.PathEscape(args[0]), nil)
			if err != nil {
				return err
			}
			if status >= 300 {
				return fmt.Errorf("error (%d): %s", status, string(resp))
			}
			fmt.Printf("%s Deleted\n", ui.ok("[OK]"))
			return nil
		},
	}

	image.AddCommand(upload, list, tempURL, download, rename, remove)
	return image
}

func newClient(baseURL, token string) *client {
	return &client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func getenv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func anyToken(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func tokenFromResponse(body []byte) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("invalid JSON response")
	}
	if strings.TrimSpace(out.Token) == "" {
		return "", errors.New("login returned empty token")
	}
	return out.Token, nil
}

func resolveSecret(flagValue string) (string, error) {
	if strings.TrimSpace(flagValue) != "" {
		return strings.TrimSpace(flagValue), nil
	}
	if v := strings.TrimSpace(os.Getenv("IMAGEVAULT_LOGIN_SECRET")); v != "" {
		return v, nil
	}
	return promptSecret("Login secret")
}

func storeToken(profileName string, apply func(*profile)) error {
	cfg, cfgPath, err := loadConfig()
	if err != nil {
		return err
	}
	active := resolveProfileName(profileName, cfg)
	prof := cfg.Profiles[active]
	apply(&prof)
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]profile{}
	}
	cfg.Profiles[active] = prof
	if cfg.CurrentProfile == "" || profileName != "" {
		cfg.CurrentProfile = active
	}
	return saveConfig(cfg, cfgPath)
}

func helpTemplate(ui *ui) string {
	title := ui.title("imagevault")
	return fmt.Sprintf(`%s - CLI for imagevault

Usage:
  {{.UseLine}}

Commands:
{{range .Commands}}{{if (or .IsAvailableCommand .IsAdditionalHelpTopicCommand)}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

Flags:
  {{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

Global Flags:
  {{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

Config:
  %s

Examples:
  imagevault init
  imagevault auth login-edit
  imagevault auth login-download --environment 42
  imagevault image upload --environment 42 --name banner --file ./banner.png
  imagevault image list --environment 42
  imagevault image temp-url --environment 42 --file-name 1717243200000_ab12cd34.png

`, title, configPath())
}

func configPath() string {
	if v := strings.TrimSpace(os.Getenv("IMAGEVAULT_CONFIG_DIR")); v != "" {
		return filepath.Join(v, "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".imagevault", "config.yaml")
}

func promptSecret(label string) (string, error) {
	fmt.Printf("%s: ", label)
	b, err := termReadPassword()
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func termReadPassword() ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		return []byte(strings.TrimSpace(line)), err
	}
	return term.ReadPassword(fd)
}

func loadConfig() (cliConfig, string, error) {
	path := configPath()
	var cfg cliConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cliConfig{Profiles: map[string]profile{}}, path, nil
		}
		return cfg, path, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, path, err
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]profile{}
	}
	return cfg, path, nil
}

func saveConfig(cfg cliConfig, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func resolveProfileName(flag string, cfg cliConfig) string {
	if strings.TrimSpace(flag) != "" {
		return strings.TrimSpace(flag)
	}
	if v := strings.TrimSpace(os.Getenv("IMAGEVAULT_PROFILE")); v != "" {
		return v
	}
	if cfg.CurrentProfile != "" {
		return cfg.CurrentProfile
	}
	return "default"
}

func prompt(r *bufio.Reader, label, def string) string {
	if def != "" {
		fmt.Printf("%s [%s]: ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}
	line, _ := r.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

func maskToken(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "<unset>"
	}
	if len(v) <= 8 {
		return "****"
	}
	return v[:4] + "..." + v[len(v)-4:]
}

func emptyOr(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
