package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/adae-bridge/engine"
	"github.com/wippyai/adae-bridge/facade"
)

func newTracksCommand(ctx *commandContext) *cobra.Command {
	var (
		extra   uint32
		imports []string
	)
	cmd := &cobra.Command{
		Use:   "tracks",
		Short: "Build an engine from the configuration and list its tracks and clips",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.runtime()
			if err != nil {
				return err
			}
			ec, err := ctx.engineConfig()
			if err != nil {
				return err
			}

			eng, failures, err := facade.New(ec)
			if err != nil {
				return err
			}
			defer eng.Drop()
			for f := range failures {
				app.Logger().Warn("preload failed", zap.String("path", f.Path), zap.Error(f.Err))
			}

			if extra > 0 {
				added, err := eng.AddAudioTracks(extra)
				if err != nil {
					return err
				}
				for _, t := range added {
					t.Drop()
				}
			}

			var placed []facade.StoredAudioClip
			for _, path := range imports {
				clip, err := eng.ImportAudioClip(path)
				if err != nil {
					return fmt.Errorf("import %s: %w", path, err)
				}
				defer clip.Drop()
				placed = append(placed, clip)
			}
			if err := placeSequentially(eng, placed, ec); err != nil {
				return err
			}

			return printTracks(cmd.OutOrStdout(), eng, ec)
		},
	}
	cmd.Flags().Uint32Var(&extra, "add", 0, "Number of audio tracks to add")
	cmd.Flags().StringArrayVar(&imports, "import", nil, "WAV file to import and place on the first track (repeatable)")
	return cmd
}

// placeSequentially lays clips end to end on the first audio track.
func placeSequentially(eng facade.Engine, clips []facade.StoredAudioClip, ec engine.Config) error {
	if len(clips) == 0 {
		return nil
	}
	tracks, err := eng.AudioTracks()
	if err != nil {
		return err
	}
	defer dropAll(tracks)
	if len(tracks) == 0 {
		return fmt.Errorf("no audio track to place clips on")
	}
	bpm := ec.BPM
	if bpm <= 0 {
		bpm = engine.DefaultBPM
	}
	pos := engine.Zero()
	for _, c := range clips {
		placed, err := tracks[0].AddClip(c, pos, nil)
		if err != nil {
			return err
		}
		placed.Drop()

		frames, err := c.Length()
		if err != nil {
			return err
		}
		rate, err := c.SampleRate()
		if err != nil {
			return err
		}
		length, err := engine.FromSamples(frames, rate, uint16(bpm*100))
		if err != nil {
			return err
		}
		if pos, err = pos.Add(length); err != nil {
			return err
		}
	}
	return nil
}

func printTracks(w io.Writer, eng facade.Engine, ec engine.Config) error {
	master, err := eng.Master()
	if err != nil {
		return err
	}
	defer master.Drop()
	tracks, err := eng.AudioTracks()
	if err != nil {
		return err
	}
	defer dropAll(tracks)

	headers := []string{"Track", "Volume", "Panning", "Clips"}
	aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight}

	row, err := mixerRow("master", master, "-")
	if err != nil {
		return err
	}
	rows := [][]string{row}

	var clipRows [][]string
	for _, t := range tracks {
		key, err := t.Key()
		if err != nil {
			return err
		}
		clips, err := t.Clips()
		if err != nil {
			return err
		}
		name := "audio " + strconv.FormatUint(uint64(key), 10)
		row, err := mixerRow(name, t, strconv.Itoa(len(clips)))
		if err != nil {
			dropAll(clips)
			return err
		}
		rows = append(rows, row)
		for _, c := range clips {
			cr, err := clipRow(name, c, ec)
			if err != nil {
				dropAll(clips)
				return err
			}
			clipRows = append(clipRows, cr)
		}
		dropAll(clips)
	}

	fmt.Fprintln(w, renderTable("Tracks", headers, rows, aligns))
	if len(clipRows) > 0 {
		fmt.Fprintln(w, renderTable("Clips",
			[]string{"Track", "Clip", "Start (beats)", "Length (units)", "Sample rate", "Frames"},
			clipRows,
			[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight}))
	}
	return nil
}

func mixerRow(name string, t facade.Track, clips string) ([]string, error) {
	vol, err := t.Volume()
	if err != nil {
		return nil, err
	}
	pan, err := t.Panning()
	if err != nil {
		return nil, err
	}
	return []string{
		name,
		strconv.FormatFloat(float64(vol), 'f', 2, 32),
		strconv.FormatFloat(float64(pan), 'f', 2, 32),
		clips,
	}, nil
}

func clipRow(track string, c facade.AudioClip, ec engine.Config) ([]string, error) {
	start, err := c.Start()
	if err != nil {
		return nil, err
	}
	length, err := c.Length()
	if err != nil {
		return nil, err
	}
	stored, err := c.StoredClip()
	if err != nil {
		return nil, err
	}
	defer stored.Drop()
	rate, err := stored.SampleRate()
	if err != nil {
		return nil, err
	}
	frames, err := stored.Length()
	if err != nil {
		return nil, err
	}
	lengthText := "to end"
	if length != nil {
		lengthText = strconv.FormatUint(uint64(length.BeatUnits()), 10)
	}
	return []string{
		track,
		strconv.FormatUint(uint64(c.Key()), 10),
		strconv.FormatUint(uint64(start.Beats()), 10),
		lengthText,
		strconv.FormatUint(uint64(rate), 10),
		strconv.FormatUint(frames, 10),
	}, nil
}

type droppable interface{ Drop() }

func dropAll[T droppable](items []T) {
	for _, it := range items {
		it.Drop()
	}
}
