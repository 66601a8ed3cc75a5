package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"chat-client/config"
	"chat-client/models"
	"chat-client/repository"
	"chat-client/services"
	"chat-client/utils"
)

var (
	cfg      *config.Config
	userID   string
	password string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "chat-client",
		Short: "Terminal client for the chat server",
		Run:   runChat,
	}

	cobra.OnInitialize(func() {
		var err error
		cfg, err = config.Load()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	})

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and store the session token",
		Run:   runLogin,
	}
	loginCmd.Flags().StringVarP(&userID, "user", "u", "", "user id")
	loginCmd.Flags().StringVarP(&password, "password", "p", "", "password")
	loginCmd.MarkFlagRequired("user")
	loginCmd.MarkFlagRequired("password")

	signupCmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Run:   runSignup,
	}
	signupCmd.Flags().StringVarP(&userID, "user", "u", "", "user id")
	signupCmd.Flags().StringVarP(&password, "password", "p", "", "password")
	signupCmd.MarkFlagRequired("user")
	signupCmd.MarkFlagRequired("password")

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Run:   runLogout,
	}

	rootCmd.AddCommand(loginCmd, signupCmd, logoutCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() *zap.Logger {
	zc := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(cfg.Log.Level); err == nil {
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}
	logger, err := zc.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return logger
}

func newCredentialRepo() *repository.FileCredentialRepo {
	creds, err := repository.NewFileCredentialRepo(cfg.Credentials.File)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return creds
}

func runLogin(cmd *cobra.Command, args []string) {
	logger := newLogger()
	defer logger.Sync()

	auth := services.NewAuthService(cfg.Server.HTTPURL, newCredentialRepo(), logger.Named("auth"))
	if err := auth.Login(cmd.Context(), userID, password); err != nil {
		fmt.Fprintf(os.Stderr, "Login failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Logged in as %s\n", userID)
}

func runSignup(cmd *cobra.Command, args []string) {
	logger := newLogger()
	defer logger.Sync()

	auth := services.NewAuthService(cfg.Server.HTTPURL, newCredentialRepo(), logger.Named("auth"))
	if err := auth.Signup(cmd.Context(), userID, password); err != nil {
		fmt.Fprintf(os.Stderr, "Sign-up failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Sign-up successful, please log in")
}

func runLogout(cmd *cobra.Command, args []string) {
	if err := newCredentialRepo().Clear(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println("Logged out")
}

func runChat(cmd *cobra.Command, args []string) {
	logger := newLogger()
	defer logger.Sync()

	creds := newCredentialRepo()
	cred, err := creds.Get()
	if err != nil {
		fmt.Fprintln(os.Stderr, "No stored credential; run `chat-client login` first")
		os.Exit(1)
	}

	me := cred.UserID
	if claims, err := utils.ExtractClaims(cred.Token); err == nil && claims.UserID != "" {
		me = claims.UserID
	}

	transcript := repository.NewInMemoryTranscriptRepo()
	files := services.NewFileService(cfg.Server.HTTPURL, creds, logger.Named("files"))

	done := make(chan struct{})
	controller := services.NewSessionController(cfg.Server.WSURL, me, cfg.Chat.RoomID,
		creds, transcript, services.Callbacks{
			OnMessage: printMessage,
			OnStateChange: func(state services.SessionState) {
				if state == services.StateDisconnected {
					fmt.Print("\r[disconnected]\n")
					close(done)
				}
			},
			OnSendError: func(localID string, err error) {
				fmt.Printf("\r[send failed] %v\n> ", err)
			},
		}, logger.Named("session"))
	defer controller.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	err = controller.Connect(ctx)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connect failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Connected to %s as %s. /file <path> [text], /fetch <file_id>, /quit\n> ", cfg.Chat.RoomID, me)

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-done:
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if !handleInput(cmd.Context(), controller, files, strings.TrimSpace(line)) {
				return
			}
			fmt.Print("> ")
		}
	}
}

// handleInput dispatches one line of terminal input; returns false to quit.
func handleInput(ctx context.Context, controller *services.SessionController, files *services.FileService, line string) bool {
	switch {
	case line == "":
		return true

	case line == "/quit":
		return false

	case strings.HasPrefix(line, "/file "):
		parts := strings.SplitN(line, " ", 3)
		path := parts[1]
		text := ""
		if len(parts) == 3 {
			text = parts[2]
		}
		if _, err := controller.Send(ctx, text, path); err != nil {
			fmt.Printf("[error] %v\n", err)
		}

	case strings.HasPrefix(line, "/fetch "):
		fileID := strings.TrimSpace(strings.TrimPrefix(line, "/fetch "))
		path, err := files.Download(ctx, fileID, cfg.Chat.DownloadDir)
		if err != nil {
			fmt.Printf("[error] %v\n", err)
		} else {
			fmt.Printf("[saved] %s\n", path)
		}

	case strings.HasPrefix(line, "/"):
		fmt.Println("[error] unknown command")

	default:
		if _, err := controller.Send(ctx, line, ""); err != nil {
			fmt.Printf("[error] %v\n", err)
		}
	}
	return true
}

// printMessage renders one transcript entry, redrawing the prompt the way a
// line-based terminal chat has to.
func printMessage(msg models.Message) {
	line := fmt.Sprintf("[%s] %s: %s", msg.Timestamp.Local().Format("15:04"), msg.UserID, msg.Text)
	if msg.Attachment != nil {
		line += fmt.Sprintf(" (file: %s <%s>)", msg.Attachment.FileName, msg.Attachment.FileID)
	}
	fmt.Printf("\r%s\n> ", line)
}
