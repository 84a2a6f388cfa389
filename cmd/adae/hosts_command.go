package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wippyai/adae-bridge/engine"
)

func newHostsCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "hosts",
		Short:       "List audio hosts, output devices and supported stream ranges",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfig": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := hostRows()
			if err != nil {
				return err
			}
			headers := []string{"Host", "Device", "Channels", "Format", "Sample rate", "Buffer"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignRight}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable("Output devices", headers, rows, aligns))
			return nil
		},
	}
}

func hostRows() ([][]string, error) {
	defaultHost := engine.DefaultHost().Name()
	var rows [][]string
	for _, h := range engine.AvailableHosts() {
		devs, err := h.OutputDevices()
		if err != nil {
			return nil, err
		}
		def, _, _ := h.DefaultOutputDevice()
		for _, d := range devs {
			ranges, err := d.SupportedConfigRanges()
			if err != nil {
				return nil, err
			}
			host, dev := h.Name(), d.Name()
			if host == defaultHost {
				host += " *"
			}
			if dev == def.Name() {
				dev += " *"
			}
			for _, r := range ranges {
				lo, hi := r.SampleRate()
				buffer := "device"
				if blo, bhi, ok := r.BufferSize(); ok {
					buffer = fmt.Sprintf("%d-%d", blo, bhi)
				}
				rows = append(rows, []string{
					host,
					dev,
					strconv.Itoa(int(r.Channels())),
					string(r.SampleFormat()),
					fmt.Sprintf("%d-%d", lo, hi),
					buffer,
				})
			}
		}
	}
	return rows, nil
}
