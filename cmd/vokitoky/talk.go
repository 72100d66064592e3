package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vokitoky/vokitoky/internal/audio"
	"github.com/vokitoky/vokitoky/internal/client"
	"github.com/vokitoky/vokitoky/internal/config"
	"github.com/vokitoky/vokitoky/internal/domain"
	"github.com/vokitoky/vokitoky/internal/protocol"
	"github.com/vokitoky/vokitoky/internal/ptt"
	"github.com/vokitoky/vokitoky/internal/transcribe"
)

var (
	talkName    string
	talkChannel string
)

func init() {
	talkCmd.Flags().StringVar(&talkName, "name", "", "callsign to join with")
	talkCmd.Flags().StringVar(&talkChannel, "channel", "", "channel to join")
}

var talkCmd = &cobra.Command{
	Use:   "talk",
	Short: "Run the terminal push-to-talk client",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		name := talkName
		if name == "" {
			name = cfg.Client.Name
		}
		if name == "" {
			return errors.New("a callsign is required (--name)")
		}
		channel := talkChannel
		if channel == "" {
			channel = cfg.Client.Channel
		}

		book := ptt.NewLogBook()
		book.OnAppend(printEntry)
		roster := ptt.NewDeviceRoster(book, ptt.DefaultDevices()...)
		sim := audio.NewSim()

		var scribe ptt.Transcriber = transcribe.Unavailable{}
		if cfg.Transcribe.APIKey != "" {
			g, err := transcribe.NewGemini(ctx, cfg.Transcribe.APIKey, cfg.Transcribe.Model)
			if err != nil {
				return fmt.Errorf("transcriber init: %w", err)
			}
			defer g.Close()
			scribe = g
		}

		var session *ptt.Session
		conn := client.New(cfg.Client.ServerURL, cfg.PingPeriod, client.Events{
			OnUserJoined: func(id domain.ConnID, joined string) {
				book.System(fmt.Sprintf("%s joined the channel", joined))
			},
			OnActiveUsers: func(users []protocol.ActiveUser) {
				names := make([]string, 0, len(users))
				for _, u := range users {
					names = append(names, u.Name)
				}
				book.System("On channel: " + strings.Join(names, ", "))
			},
			OnVoice: func(msg protocol.VoiceBroadcast) {
				session.HandleIncoming(msg.SenderName, msg.Audio, msg.Transcription)
			},
			OnStatus: func(s client.Status) {
				session.SetCommunicating(s == client.StatusConnected)
			},
		})
		session = ptt.NewSession(sim, scribe, roster, book, conn, cfg.Transcribe.Timeout)

		if !sim.RequestPermission(ctx) {
			return errors.New("microphone access is required")
		}
		if err := conn.Dial(ctx); err != nil {
			return fmt.Errorf("dial %s: %w", cfg.Client.ServerURL, err)
		}
		go conn.Run(ctx)
		if err := conn.Join(name, channel); err != nil {
			return err
		}
		book.System("Connected to secure channel: " + channel)

		fmt.Println("Enter toggles push-to-talk; 'mute' toggles the current device; 'quit' exits.")
		go readCommands(cancel, session, roster)

		<-ctx.Done()
		conn.Close()
		return nil
	},
}

func readCommands(cancel context.CancelFunc, session *ptt.Session, roster *ptt.DeviceRoster) {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		switch strings.TrimSpace(sc.Text()) {
		case "":
			if session.State() == ptt.StateRecording {
				session.Stop()
			} else {
				session.Start()
			}
		case "mute":
			roster.ToggleMute(roster.Current().ID)
		case "devices":
			for _, d := range roster.Devices() {
				fmt.Printf("  %-8s %-20s muted=%-5v %s\n", d.Kind, d.Name, d.IsMuted, d.Status)
			}
		case "quit":
			cancel()
			return
		default:
			fmt.Println("commands: <enter>, mute, devices, quit")
		}
	}
	cancel()
}

func printEntry(e domain.LogEntry) {
	switch e.Kind {
	case domain.LogVoice:
		log.Info().Str("sender", e.Sender).Str("transcription", e.Transcription).Msg(e.Message)
	case domain.LogError:
		log.Error().Msg(e.Message)
	default:
		log.Info().Msg(e.Message)
	}
}
