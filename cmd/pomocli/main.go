// Package main provides the command-line client.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	apiconnect "github.com/osa030/pomotune/internal/api/connect"
	pomotunev1 "github.com/osa030/pomotune/internal/api/pomotune/v1"
	"github.com/osa030/pomotune/internal/ui/watch"
)

var (
	app    = kingpin.New("pomocli", "pomotune command-line client")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token  = app.Flag("token", "API token (or set POMOTUNE_API_TOKEN env)").Envar("POMOTUNE_API_TOKEN").String()

	statusCmd = app.Command("status", "Show timer, player and session state")

	timerCmd         = app.Command("timer", "Control the Pomodoro timer")
	timerStartCmd    = timerCmd.Command("start", "Start the countdown")
	timerPauseCmd    = timerCmd.Command("pause", "Pause the countdown")
	timerResetCmd    = timerCmd.Command("reset", "Reset the current mode")
	timerSkipCmd     = timerCmd.Command("skip", "Skip to the next mode")
	timerModeCmd     = timerCmd.Command("mode", "Switch mode")
	timerModeArg     = timerModeCmd.Arg("mode", "focus, short_break or long_break").Required().String()
	timerSettingsCmd = timerCmd.Command("settings", "Set durations in minutes")
	timerFocus       = timerSettingsCmd.Flag("focus", "Focus minutes").Default("25").Float64()
	timerShort       = timerSettingsCmd.Flag("short", "Short break minutes").Default("5").Float64()
	timerLong        = timerSettingsCmd.Flag("long", "Long break minutes").Default("15").Float64()

	playerCmd        = app.Command("player", "Control the music player")
	playerTracksCmd  = playerCmd.Command("tracks", "List the playlist").Alias("list")
	playerPlayCmd    = playerCmd.Command("play", "Play a track by ID")
	playerPlayArg    = playerPlayCmd.Arg("track-id", "Track ID").Required().String()
	playerToggleCmd  = playerCmd.Command("toggle", "Toggle play/pause")
	playerNextCmd    = playerCmd.Command("next", "Play the next track")
	playerPrevCmd    = playerCmd.Command("prev", "Play the previous track")
	playerPauseCmd   = playerCmd.Command("pause", "Pause playback")
	playerVolumeCmd  = playerCmd.Command("volume", "Set the volume (0-1)")
	playerVolumeArg  = playerVolumeCmd.Arg("volume", "Volume").Required().Float64()
	playerDismissCmd = playerCmd.Command("dismiss", "Dismiss the error")
	playerReloadCmd  = playerCmd.Command("reload", "Reload the catalog")

	visibilityCmd = app.Command("visibility", "Report host visibility (manual source only)")
	visibilityArg = visibilityCmd.Arg("visible", "true or false").Required().Bool()

	subscribeCmd = app.Command("subscribe", "Print notifications")
	includeTicks = subscribeCmd.Flag("ticks", "Include timer ticks").Bool()

	watchCmd = app.Command("watch", "Interactive dashboard").Default()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	client := watch.NewClient(http.DefaultClient, *server,
		connect.WithInterceptors(apiconnect.NewAuthInterceptor(*token)))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch command {
	case statusCmd.FullCommand():
		err = status(ctx, client)

	case timerStartCmd.FullCommand():
		err = printTimer(client.Timer.Start(ctx, empty()))
	case timerPauseCmd.FullCommand():
		err = printTimer(client.Timer.Pause(ctx, empty()))
	case timerResetCmd.FullCommand():
		err = printTimer(client.Timer.Reset(ctx, empty()))
	case timerSkipCmd.FullCommand():
		err = printTimer(client.Timer.Skip(ctx, empty()))
	case timerModeCmd.FullCommand():
		err = printTimer(client.Timer.SwitchMode(ctx, connect.NewRequest(&pomotunev1.SwitchModeRequest{Mode: *timerModeArg})))
	case timerSettingsCmd.FullCommand():
		err = printTimer(client.Timer.UpdateSettings(ctx, connect.NewRequest(&pomotunev1.UpdateSettingsRequest{
			Durations: &pomotunev1.Durations{
				FocusSec:      minutes(*timerFocus),
				ShortBreakSec: minutes(*timerShort),
				LongBreakSec:  minutes(*timerLong),
			},
		})))

	case playerTracksCmd.FullCommand():
		err = listTracks(ctx, client)
	case playerPlayCmd.FullCommand():
		err = printPlayer(client.Player.PlayTrack(ctx, connect.NewRequest(&pomotunev1.PlayTrackRequest{TrackId: *playerPlayArg})))
	case playerToggleCmd.FullCommand():
		err = printPlayer(client.Player.TogglePlay(ctx, empty()))
	case playerNextCmd.FullCommand():
		err = printPlayer(client.Player.Next(ctx, empty()))
	case playerPrevCmd.FullCommand():
		err = printPlayer(client.Player.Previous(ctx, empty()))
	case playerPauseCmd.FullCommand():
		err = printPlayer(client.Player.Pause(ctx, empty()))
	case playerVolumeCmd.FullCommand():
		err = printPlayer(client.Player.SetVolume(ctx, connect.NewRequest(&pomotunev1.SetVolumeRequest{Volume: *playerVolumeArg})))
	case playerDismissCmd.FullCommand():
		err = printPlayer(client.Player.DismissError(ctx, empty()))
	case playerReloadCmd.FullCommand():
		err = printPlayer(client.Player.ReloadCatalog(ctx, empty()))

	case visibilityCmd.FullCommand():
		err = client.ReportVisibility(ctx, *visibilityArg)
		if err == nil {
			fmt.Printf("Reported visible=%t\n", *visibilityArg)
		}

	case subscribeCmd.FullCommand():
		err = subscribe(ctx, client)

	case watchCmd.FullCommand():
		notifs, errc := client.Subscribe(ctx, true)
		_, err = tea.NewProgram(watch.NewModel(ctx, client, notifs, errc), tea.WithAltScreen()).Run()
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func empty() *connect.Request[pomotunev1.Empty] {
	return connect.NewRequest(&pomotunev1.Empty{})
}

func minutes(m float64) int32 {
	return int32(m*60 + 0.5)
}

func status(ctx context.Context, client *watch.Client) error {
	resp, err := client.Session.GetStatus(ctx, empty())
	if err != nil {
		return err
	}
	s := resp.Msg

	fmt.Println("\n=== CURRENT STATUS ===")
	if s.Session != nil {
		fmt.Println("\nSession:")
		fmt.Printf("  Session ID: %s\n", s.Session.SessionId)
		fmt.Printf("  Started At: %s\n", s.Session.StartedAt)
		fmt.Printf("  Host Visible: %v (%s)\n", s.Session.HostVisible, s.Session.VisibilitySource)
		fmt.Printf("  Catalog Source: %s\n", s.Session.CatalogSource)
	}
	printTimerState(s.Timer)
	printPlayerState(s.Player)
	fmt.Println()
	return nil
}

func printTimer(resp *connect.Response[pomotunev1.TimerResponse], err error) error {
	if err != nil {
		return err
	}
	printTimerState(resp.Msg.Timer)
	return nil
}

func printPlayer(resp *connect.Response[pomotunev1.PlayerResponse], err error) error {
	if err != nil {
		return err
	}
	printPlayerState(resp.Msg.Player)
	return nil
}

func printTimerState(t *pomotunev1.TimerState) {
	if t == nil {
		return
	}
	fmt.Println("\nTimer:")
	fmt.Printf("  Mode: %s\n", t.Mode)
	fmt.Printf("  Time Left: %s\n", t.Clock)
	fmt.Printf("  Running: %v\n", t.IsActive)
	fmt.Printf("  Completed Sessions: %d (long break every %d)\n", t.CompletedSessions, t.SessionsBeforeLongBreak)
	if d := t.Durations; d != nil {
		fmt.Printf("  Durations: focus=%ds short_break=%ds long_break=%ds\n", d.FocusSec, d.ShortBreakSec, d.LongBreakSec)
	}
}

func printPlayerState(p *pomotunev1.PlayerState) {
	if p == nil {
		return
	}
	fmt.Println("\nPlayer:")
	if p.CurrentTrack != nil {
		fmt.Printf("  Track: [%d/%d] %s - %s (id=%s)\n", p.CurrentIndex+1, p.TrackCount, p.CurrentTrack.Title, p.CurrentTrack.Artist, p.CurrentTrack.Id)
		if p.CurrentTrack.WallpaperUrl != "" {
			fmt.Printf("  Wallpaper: %s\n", p.CurrentTrack.WallpaperUrl)
		}
	} else {
		fmt.Printf("  Track: none (%d tracks)\n", p.TrackCount)
	}
	fmt.Printf("  Playing: %v\n", p.IsPlaying)
	fmt.Printf("  Volume: %.0f%%\n", p.Volume*100)
	if p.Loading {
		fmt.Println("  Loading: true")
	}
	if p.Error != "" {
		fmt.Printf("  Error [%s]: %s\n", p.ErrorKind, p.Error)
	}
}

func listTracks(ctx context.Context, client *watch.Client) error {
	resp, err := client.Player.ListTracks(ctx, empty())
	if err != nil {
		return err
	}
	for i, t := range resp.Msg.Tracks {
		fmt.Printf("%3d. %-12s %s", i+1, t.Id, t.Title)
		if t.Artist != "" {
			fmt.Printf(" - %s", t.Artist)
		}
		if t.GenreName != "" {
			fmt.Printf(" [%s]", t.GenreName)
		}
		fmt.Println()
	}
	return nil
}

func subscribe(ctx context.Context, client *watch.Client) error {
	notifs, errc := client.Subscribe(ctx, *includeTicks)
	fmt.Println("Subscribed to notifications. Press Ctrl+C to exit.")

	for n := range notifs {
		fmt.Printf("\n[Sequence: %d] === %s ===\n", n.SequenceNo, n.Type)
		if n.PreviousMode != "" {
			fmt.Printf("  Previous Mode: %s\n", n.PreviousMode)
		}
		printTimerState(n.Timer)
		printPlayerState(n.Player)
		if n.Session != nil {
			fmt.Printf("\nSession: visible=%v catalog=%s\n", n.Session.HostVisible, n.Session.CatalogSource)
		}
	}
	if err := <-errc; err != nil {
		return err
	}
	fmt.Println("\nUnsubscribed.")
	return nil
}
