package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/nodeflip/nodeflip/pkg/api"
	"github.com/nodeflip/nodeflip/pkg/bridge"
	"github.com/nodeflip/nodeflip/pkg/canvas"
	"github.com/nodeflip/nodeflip/pkg/chat"
	"github.com/nodeflip/nodeflip/pkg/config"
	"github.com/nodeflip/nodeflip/pkg/controllers"
	"github.com/nodeflip/nodeflip/pkg/logger"
	"github.com/nodeflip/nodeflip/pkg/render"
	"github.com/spf13/viper"
)

var log = logger.Component("cmd")

func runApp() error {
	cfg := config.Get()
	if !cfg.Configured() {
		return fmt.Errorf("backend not configured, set backend.url and backend.api_key (or --backend-url / --api-key)")
	}

	ctx := context.Background()
	client := api.NewClient(cfg.Backend)

	br, host, err := setupBridge(cfg)
	if err != nil {
		return err
	}
	defer br.Close()

	controller := controllers.NewSessionController(client, br)
	if host != nil {
		controller.SetWorkflowProvider(host)
	}

	if cfg.Transcript.Path != "" {
		transcript, err := chat.NewTranscript(cfg.Transcript.Path)
		if err != nil {
			return err
		}
		controller.SetTranscript(transcript)
	}

	if viper.GetBool("continue") {
		err = controller.Resume(ctx)
	} else {
		err = controller.Load(ctx)
	}
	if err != nil {
		return err
	}

	if prompt := viper.GetString("prompt"); prompt != "" {
		if err := controller.Send(ctx, prompt); err != nil {
			return err
		}
		fmt.Print(render.Conversation(controller.Conversation()))
		if approval := controller.PendingApproval(); approval != nil {
			fmt.Println(render.ApprovalBanner(approval.NodeName, approval.NodeType))
			if len(approval.Parameters) > 0 {
				fmt.Println(render.Parameters(approval.Parameters))
			}
		}
		return nil
	}

	return runREPL(ctx, controller)
}

// setupBridge wires the chat side to a canvas: either an in-process host
// session (development and tests) or a websocket to the browser shim.
func setupBridge(cfg *config.Config) (*bridge.Bridge, *canvas.HostSession, error) {
	if cfg.Bridge.SimulateHost {
		chatEnd, hostEnd := bridge.NewPipe()
		host := canvas.NewHostSession(canvas.NewStore(), canvas.NewTypeRegistry())
		canvas.Bind(bridge.New(hostEnd), host)
		log.Info("running with simulated in-process canvas")
		return bridge.New(chatEnd), host, nil
	}

	ch, err := bridge.Listen(cfg.Bridge.Listen)
	if err != nil {
		return nil, nil, err
	}
	return bridge.New(ch), nil, nil
}

func runREPL(ctx context.Context, controller *controllers.SessionController) error {
	fmt.Println("Connected. Type a message, /approve, /changes <feedback>, /sync-global-nodes, /sync-custom-nodes, /reset or /exit.")
	fmt.Print(render.Conversation(controller.Conversation()))

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var err error
		switch {
		case line == "/exit":
			return nil
		case line == "/reset":
			err = controller.Reset()
			fmt.Println("Conversation cleared.")
		case line == "/approve":
			err = controller.Approve(ctx)
		case strings.HasPrefix(line, "/changes"):
			err = controller.RequestChanges(ctx, strings.TrimPrefix(line, "/changes"))
		case line == "/sync-global-nodes":
			err = controller.SyncCatalog(ctx, canvas.CatalogStandard)
		case line == "/sync-custom-nodes":
			err = controller.SyncCatalog(ctx, canvas.CatalogCustom)
		default:
			err = controller.Send(ctx, line)
		}
		if err != nil {
			log.Error("command failed: %v", err)
		}

		fmt.Print(render.Conversation(controller.Conversation()))
		if approval := controller.PendingApproval(); approval != nil {
			fmt.Println(render.ApprovalBanner(approval.NodeName, approval.NodeType))
			if len(approval.Parameters) > 0 {
				fmt.Println(render.Parameters(approval.Parameters))
			}
		}
	}
}
