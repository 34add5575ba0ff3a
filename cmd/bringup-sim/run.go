//go:build !rp2350

package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"bringup-go/bringup"
	"bringup-go/bus"
	"bringup-go/internal/netstack"
	"bringup-go/internal/platform"
	"bringup-go/internal/setups"
	"bringup-go/services/netmon"
	"bringup-go/x/logx"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"tinygo.org/x/drivers/netlink"
)

var (
	runSSID       string
	runPassphrase string
	runDuration   time.Duration
	runInterval   time.Duration
	runPeerPort   uint16
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Bring up the board, associate and pass traffic",
	Long: `Bring up the simulated board, start the Wi-Fi controller and associate
with the given access point, then run the network stack runner and the
netmon service while an echo peer answers datagrams sent from a socket.`,
	RunE: runSim,
}

func init() {
	runCmd.Flags().StringVar(&runSSID, "ssid", "bringup", "access point to join")
	runCmd.Flags().StringVar(&runPassphrase, "passphrase", "", "WPA passphrase (empty for an open network)")
	runCmd.Flags().DurationVarP(&runDuration, "duration", "d", 3*time.Second, "how long to run before printing statistics")
	runCmd.Flags().DurationVar(&runInterval, "interval", 250*time.Millisecond, "datagram send interval")
	runCmd.Flags().Uint16Var(&runPeerPort, "peer-port", 7, "port of the simulated echo peer")
}

func runSim(cmd *cobra.Command, args []string) error {
	cfg, err := loadProfile(profilePath)
	if err != nil {
		return err
	}
	board := platform.NewSimBoard(cfg)

	hw, err := bringup.Build(board, setups.Selected)
	if err != nil {
		return err
	}
	log := logx.Zap().Named("sim")
	defer func() { _ = log.Sync() }()

	if err := hw.Controller.Start(); err != nil {
		return err
	}
	if err := hw.Controller.Connect(&netlink.ConnectParams{
		ConnectMode: netlink.ConnectModeSTA,
		Ssid:        runSSID,
		Passphrase:  runPassphrase,
	}); err != nil {
		return fmt.Errorf("connect %q: %w", runSSID, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, runDuration)
	defer cancel()

	sock, err := hw.Stack.Open()
	if err != nil {
		return err
	}
	defer sock.Close()

	b := bus.NewBus(8)
	mon := &netmon.Service{
		Link:     hw.Stack,
		Counters: hw.Runner,
		Interval: time.Second,
		Notify:   hw.Controller.Notify,
	}
	radio := board.SimRadio()
	mac := hw.Stack.Driver().HardwareAddr()
	peer := echoPeer{radio: radio, mac: mac, port: runPeerPort}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ignoreDone(hw.Runner.Run(gctx)) })
	g.Go(func() error { return ignoreDone(mon.Run(gctx, b.NewConnection("netmon"))) })
	g.Go(func() error { return ignoreDone(peer.run(gctx)) })
	g.Go(func() error { return ignoreDone(sendLoop(gctx, log, sock)) })
	g.Go(func() error { return ignoreDone(recvLoop(gctx, log, sock)) })
	g.Go(func() error { return ignoreDone(watchBus(gctx, log, b)) })

	err = g.Wait()
	st := hw.Runner.Stats()
	fmt.Fprintf(cmd.OutOrStdout(), "tx_frames=%d tx_errors=%d rx_frames=%d rx_dropped=%d rx_unhandled=%d\n",
		st.TxFrames, st.TxErrors, st.RxFrames, st.RxDropped, st.RxUnhandled)
	return err
}

func ignoreDone(err error) error {
	if err == context.Canceled || err == context.DeadlineExceeded {
		return nil
	}
	return err
}

func sendLoop(ctx context.Context, log *zap.Logger, sock *netstack.Socket) error {
	tick := time.NewTicker(runInterval)
	defer tick.Stop()
	seq := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
			seq++
			if err := sock.Send(runPeerPort, []byte(fmt.Sprintf("ping %d", seq))); err != nil {
				log.Debug("send skipped", zap.Int("seq", seq), zap.Error(err))
			}
		}
	}
}

func recvLoop(ctx context.Context, log *zap.Logger, sock *netstack.Socket) error {
	buf := make([]byte, netstack.SlotBufSize)
	for {
		n, from, err := sock.Recv(ctx, buf)
		if err != nil {
			return err
		}
		log.Info("datagram", zap.Uint16("from", from), zap.ByteString("payload", buf[:n]))
	}
}

func watchBus(ctx context.Context, log *zap.Logger, b *bus.Bus) error {
	conn := b.NewConnection("sim")
	defer conn.Disconnect()
	link := conn.Subscribe(netmon.TopicLink)
	stats := conn.Subscribe(netmon.TopicStats)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m := <-link.Channel():
			log.Info("link", zap.Any("state", m.Payload))
		case m := <-stats.Channel():
			log.Info("stats", zap.Any("stack", m.Payload))
		}
	}
}
