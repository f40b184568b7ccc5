package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

func main() {
	baseURL := flag.String("server", envOr("SCD_SERVER_URL", "http://127.0.0.1:8821"), "URL du serveur (ex: http://127.0.0.1:8821)")
	timeout := flag.Duration("timeout", 10*time.Second, "Timeout HTTP")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	client := &http.Client{Timeout: *timeout}
	api := *baseURL + "/api/v1"

	switch args[0] {
	case "health":
		get(client, api+"/health")
	case "version":
		get(client, api+"/version")
	case "state":
		get(client, api+"/playback/state")
	case "channels":
		get(client, api+"/channels")
	case "settings":
		get(client, api+"/settings")
	case "play":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: scd play <channel> [itemId]")
			os.Exit(2)
		}
		body := map[string]string{"channelName": args[1]}
		if len(args) > 2 {
			body["startItemId"] = args[2]
		}
		post(client, api+"/playback/play-channel", body)
	case "next":
		post(client, api+"/playback/skip", nil)
	case "back":
		post(client, api+"/playback/back", nil)
	case "stop":
		post(client, api+"/playback/stop", nil)
	case "export":
		get(client, api+"/export")
	case "import":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: scd import <fichier.json>")
			os.Exit(2)
		}
		b, err := os.ReadFile(args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "Erreur:", err)
			os.Exit(1)
		}
		postRaw(client, api+"/import", b)
	case "delete":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "Usage: scd delete <channel>")
			os.Exit(2)
		}
		del(client, api+"/channels/"+url.PathEscape(args[1]))
	default:
		fmt.Fprintln(os.Stderr, "Commande inconnue:", args[0])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: scd [health|version|state|channels|settings|play|next|back|stop|export|import|delete]")
}

func get(client *http.Client, url string) {
	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Erreur:", err)
		os.Exit(1)
	}
	show(resp)
}

func post(client *http.Client, url string, body any) {
	var b []byte
	if body != nil {
		b, _ = json.Marshal(body)
	}
	postRaw(client, url, b)
}

func postRaw(client *http.Client, url string, b []byte) {
	resp, err := client.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Erreur:", err)
		os.Exit(1)
	}
	show(resp)
}

func del(client *http.Client, url string) {
	req, _ := http.NewRequest(http.MethodDelete, url, nil)
	resp, err := client.Do(req)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Erreur:", err)
		os.Exit(1)
	}
	show(resp)
}

func show(resp *http.Response) {
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	var pretty any
	if err := json.Unmarshal(b, &pretty); err == nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(pretty)
		if resp.StatusCode >= 400 {
			os.Exit(1)
		}
		return
	}

	os.Stdout.Write(b)
	os.Stdout.Write([]byte("\n"))
	if resp.StatusCode >= 400 {
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
