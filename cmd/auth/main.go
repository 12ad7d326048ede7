// Package main obtains a Spotify refresh token for the spotify catalog source.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/osa030/pomotune/internal/infra/logger"
)

var (
	app          = kingpin.New("pomotune-auth", "Obtain a Spotify refresh token for pomotune")
	clientID     = app.Flag("client-id", "Spotify Client ID").Envar("SPOTIFY_CLIENT_ID").Required().String()
	clientSecret = app.Flag("client-secret", "Spotify Client Secret").Envar("SPOTIFY_CLIENT_SECRET").Required().String()
	port         = app.Flag("port", "Callback server port").Default("8888").Int()
	envFile      = app.Flag("env-file", "Write SPOTIFY_REFRESH_TOKEN into this .env file").String()
	timeout      = app.Flag("timeout", "How long to wait for authorization").Default("5m").Duration()
)

type result struct {
	token *oauth2.Token
	err   error
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	if _, err := logger.Init(logger.Config{Output: "stderr", Level: "info"}); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	redirectURI := fmt.Sprintf("http://127.0.0.1:%d/callback", *port)
	auth := spotifyauth.New(
		spotifyauth.WithRedirectURL(redirectURI),
		spotifyauth.WithClientID(*clientID),
		spotifyauth.WithClientSecret(*clientSecret),
		spotifyauth.WithScopes(spotifyauth.ScopePlaylistReadPrivate),
	)
	state := uuid.NewString()
	ch := make(chan result, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if st := r.FormValue("state"); st != state {
			http.Error(w, "State mismatch", http.StatusForbidden)
			zlog.Warn().Msgf("state mismatch: got=%s", st)
			return
		}
		token, err := auth.Token(r.Context(), state, r)
		if err != nil {
			http.Error(w, "Failed to get token", http.StatusForbidden)
			ch <- result{err: err}
			return
		}
		fmt.Fprint(w, completePage)
		ch <- result{token: token}
	})

	server := &http.Server{Addr: fmt.Sprintf("127.0.0.1:%d", *port), Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Msgf("Failed to start callback server: %v", err)
		}
	}()

	fmt.Println("Please visit the following URL to authorize pomotune:")
	fmt.Println("")
	fmt.Println(auth.AuthURL(state))
	fmt.Println("")
	fmt.Println("Waiting for authorization...")

	var res result
	select {
	case res = <-ch:
	case <-time.After(*timeout):
		res = result{err: fmt.Errorf("no authorization within %s", *timeout)}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		zlog.Warn().Msgf("Failed to shutdown callback server: %v", err)
	}

	if res.err != nil {
		zlog.Error().Msgf("Authorization failed: %v", res.err)
		os.Exit(1)
	}

	refresh := res.token.RefreshToken
	if *envFile != "" {
		if err := writeEnv(*envFile, refresh); err != nil {
			zlog.Error().Msgf("Failed to write %s: %v", *envFile, err)
			os.Exit(1)
		}
		fmt.Printf("\nSPOTIFY_REFRESH_TOKEN written to %s\n", *envFile)
		return
	}

	fmt.Println("")
	fmt.Println("=== Authorization Successful ===")
	fmt.Println("")
	fmt.Println("Add this to your server.yaml:")
	fmt.Println("")
	fmt.Println("spotify:")
	fmt.Printf("  refresh_token: \"%s\"\n", refresh)
	fmt.Println("")
	fmt.Println("Or set as environment variable:")
	fmt.Printf("export SPOTIFY_REFRESH_TOKEN=\"%s\"\n", refresh)
}

// writeEnv sets SPOTIFY_REFRESH_TOKEN in path, keeping the other entries.
func writeEnv(path, refresh string) error {
	env := map[string]string{}
	if _, err := os.Stat(path); err == nil {
		existing, err := godotenv.Read(path)
		if err != nil {
			return err
		}
		env = existing
	}
	env["SPOTIFY_REFRESH_TOKEN"] = refresh
	return godotenv.Write(env, path)
}

const completePage = `<!DOCTYPE html>
<html>
<head>
    <title>pomotune - Authorization Complete</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            height: 100vh;
            margin: 0;
            background: #E4572E;
            color: white;
        }
        .container { text-align: center; padding: 40px; background: rgba(0, 0, 0, 0.4); border-radius: 16px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Authorization Complete</h1>
        <p>You can close this window and return to the terminal.</p>
    </div>
</body>
</html>
`
