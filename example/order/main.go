package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"

	"github.com/goalchain/goalchain/chain"
	"github.com/goalchain/goalchain/types"
)

func main() {
	conf := flag.String("config", "config.json", "path to config file")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()
	config, err := loadConfig(*conf)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}
	if err := run(context.Background(), config); err != nil {
		log.Fatalf("run: %v", err)
	}
}

func run(ctx context.Context, config *Config) error {
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		APIKey:  config.APIKey,
		Model:   config.Model,
		BaseURL: config.BaseURL,
	})
	if err != nil {
		return err
	}

	conversation, err := chain.NewToolBased(buildGraph(), chatModel)
	if err != nil {
		return err
	}

	resp, err := conversation.GetResponse(ctx, "")
	if err != nil {
		return err
	}
	fmt.Println("Assistant: " + resp.Content)

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("You: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		resp, err := conversation.GetResponse(ctx, line)
		if err != nil {
			fmt.Printf("Assistant: sorry, something went wrong (%v), please try again.\n", err)
			continue
		}
		switch resp.Type {
		case types.ResponseData:
			fmt.Printf("[%s completed] %v\n", resp.Goal, resp.Data)
		case types.ResponseEnd:
			fmt.Println("Assistant: " + resp.Content)
			closing, err := conversation.SimulateResponse(ctx, "Thank you for choosing our service. Have a great day!", true)
			if err == nil {
				fmt.Println("Assistant: " + closing.Content)
			}
			return nil
		default:
			fmt.Println("Assistant: " + resp.Content)
		}
	}
}
