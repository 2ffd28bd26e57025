package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/paijose/internal/pcm"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	playWAV    string
	playSilent bool

	playCmd = &cobra.Command{
		Use:   "play [FILE|-]",
		Short: "Play a base64 speech payload",
		Long: paragraph(fmt.Sprintf("\n%s a base64 payload of 16-bit PCM, as returned by the speech service. "+
			"Reads from stdin when no file is given. Files ending in .wav are played as WAV.", keyword("Play"))),
		Example: paragraph("paijose play reply.b64\npaijose play --wav reply.wav --silent reply.b64\npaijose play reply.wav"),
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(viper.GetViper())
			if err != nil {
				return err
			}

			arg := "-"
			if len(args) > 0 {
				arg = args[0]
			}
			payload, buf, err := readPayload(arg, s.format())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s frames, %d Hz, %d ch, %s, %s\n",
				arg,
				humanize.Comma(int64(buf.Frames())),
				buf.SampleRate(),
				buf.NumChannels(),
				buf.Duration().Round(10*time.Millisecond),
				humanize.Bytes(uint64(buf.Frames()*buf.Format().FrameSize())))

			if playWAV != "" {
				if err := saveWAV(playWAV, buf); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Wrote", playWAV)
			}

			if playSilent || s.Audio.Disabled {
				return nil
			}

			s.Audio.SampleRate = buf.SampleRate()
			s.Audio.Channels = buf.NumChannels()
			p, err := newPipeline(s)
			if err != nil {
				return err
			}
			defer p.Close() //nolint:errcheck

			h, err := p.Play(payload)
			if err != nil {
				return fmt.Errorf("unable to play: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := h.Wait(ctx); err != nil {
				p.Stop()
				log.Debug("Playback interrupted")
			}
			return nil
		},
	}
)

// readPayload loads a base64 payload, or a WAV file re-encoded as one.
func readPayload(arg string, f pcm.Format) (string, *pcm.Buffer, error) {
	if strings.EqualFold(filepath.Ext(arg), ".wav") {
		r, err := os.Open(arg)
		if err != nil {
			return "", nil, fmt.Errorf("unable to open file: %w", err)
		}
		defer r.Close() //nolint:errcheck

		buf, err := pcm.ReadWAV(r)
		if err != nil {
			return "", nil, fmt.Errorf("unable to read %s: %w", arg, err)
		}
		return pcm.Encode(buf.Int16()), buf, nil
	}

	var r io.Reader = os.Stdin
	if arg != "-" {
		file, err := os.Open(arg)
		if err != nil {
			return "", nil, fmt.Errorf("unable to open file: %w", err)
		}
		defer file.Close() //nolint:errcheck
		r = file
	}

	b, err := io.ReadAll(r)
	if err != nil {
		return "", nil, fmt.Errorf("unable to read from reader: %w", err)
	}
	payload := strings.Join(strings.Fields(string(b)), "")

	buf, err := pcm.Decode(payload, f)
	if err != nil {
		return "", nil, err
	}
	return payload, buf, nil
}

func saveWAV(path string, buf *pcm.Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create %s: %w", path, err)
	}
	if err := pcm.WriteWAV(f, buf); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func init() {
	playCmd.Flags().StringVar(&playWAV, "wav", "", "also write the decoded audio to this WAV file")
	playCmd.Flags().BoolVar(&playSilent, "silent", false, "decode (and export) without playing")
	playCmd.Flags().Int("rate", 0, "sample rate of the payload (default from config)")
	playCmd.Flags().Int("channels", 0, "channel count of the payload (default from config)")
	_ = viper.BindPFlag("audio.sample_rate", playCmd.Flags().Lookup("rate"))
	_ = viper.BindPFlag("audio.channels", playCmd.Flags().Lookup("channels"))
}
