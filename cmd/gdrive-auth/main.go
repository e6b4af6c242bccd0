// Command gdrive-auth runs the OAuth consent flow once and prints the
// refresh token the gdrive storage provider reads from GDRIVE_REFRESH_TOKEN.
package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"

	"cosmos/internal/config"
	"cosmos/internal/pkg/logger"
)

type authConfig struct {
	ClientID     string        `env:"GDRIVE_CLIENT_ID,required,notEmpty"`
	ClientSecret string        `env:"GDRIVE_CLIENT_SECRET,required,notEmpty"`
	Timeout      time.Duration `env:"GDRIVE_AUTH_TIMEOUT" envDefault:"3m"`
}

func main() {
	log := logger.New(logger.Config{Level: "info", Format: "text", ServiceName: "gdrive-auth", Output: os.Stderr})

	var cfg authConfig
	if err := config.ParseEnv(&cfg); err != nil {
		log.LogFatal("invalid configuration", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		log.LogFatal("failed to open callback listener", err)
	}

	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		// Only files the app creates.
		Scopes:      []string{drive.DriveFileScope},
		RedirectURL: fmt.Sprintf("http://%s/callback", ln.Addr().String()),
	}

	code, err := authorize(ctx, conf, ln, func(authURL string) {
		fmt.Fprintf(os.Stderr, "\nOpen this URL in a browser:\n\n%s\n\nWaiting for the callback on %s\n", authURL, conf.RedirectURL)
	})
	if err != nil {
		log.LogFatal("authorization failed", err)
	}

	tok, err := conf.Exchange(ctx, code)
	if err != nil {
		log.LogFatal("token exchange failed", err)
	}

	// Google omits the refresh token when the app was already authorized
	// without prompt=consent.
	if strings.TrimSpace(tok.RefreshToken) == "" {
		log.Error("no refresh token returned; revoke the app at https://myaccount.google.com/permissions and retry")
		os.Exit(1)
	}

	fmt.Println(tok.RefreshToken)
}

// authorize serves the OAuth callback on ln and returns the authorization
// code. show receives the consent URL.
func authorize(ctx context.Context, conf *oauth2.Config, ln net.Listener, show func(string)) (string, error) {
	state := randomState()

	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var err error
		switch {
		case q.Get("state") != state:
			err = fmt.Errorf("invalid state")
		case q.Get("error") != "":
			err = fmt.Errorf("auth error: %s", q.Get("error"))
		case q.Get("code") == "":
			err = fmt.Errorf("missing code")
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			select {
			case errCh <- err:
			default:
			}
			return
		}

		fmt.Fprintln(w, "Authorized. You can close this window.")
		select {
		case codeCh <- q.Get("code"):
		default:
		}
	})

	srv := &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() { _ = srv.Serve(ln) }()
	defer srv.Close()

	show(conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	))

	select {
	case code := <-codeCh:
		return code, nil
	case err := <-errCh:
		return "", err
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for authorization: %w", ctx.Err())
	}
}

func randomState() string {
	b := make([]byte, 18)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
