package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

var (
	baseURL       = flag.String("base", "http://localhost:8080", "server base URL")
	studentCount  = flag.Int("students", 50, "concurrent students")
	msgCount      = flag.Int("messages", 20, "messages per side")
	departmentArg = flag.String("department", "it-services", "department slug to message")
	emailDomain   = flag.String("domain", "nbsc.edu.ph", "institutional email domain")
	adminEmail    = flag.String("admin-email", "admin@nbsc.edu.ph", "admin login")
	adminPassword = flag.String("admin-password", "admin123", "admin password")
)

type authResponse struct {
	Token string `json:"access_token"`
}

type conversation struct {
	ID            string `json:"id"`
	Unread        int    `json:"unread"`
	UnreadStudent int    `json:"unread_student"`
}

type frame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
	Error          string `json:"error"`
}

func main() {
	flag.Parse()
	log.Printf("STARTING LOAD TEST: %d students, %d messages per side", *studentCount, *msgCount)

	adminToken, err := login("/api/admin/login", *adminEmail, *adminPassword)
	if err != nil {
		log.Fatalf("Admin login failed: %v", err)
	}

	var wg sync.WaitGroup
	var failures atomic.Int64
	for i := 0; i < *studentCount; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if err := runStudent(n, adminToken); err != nil {
				log.Printf("student %d: %v", n, err)
				failures.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if n := failures.Load(); n > 0 {
		log.Fatalf("LOAD TEST FAILED: %d of %d students broke an invariant", n, *studentCount)
	}
	log.Println("LOAD TEST COMPLETE")
}

// runStudent has one student watch the thread while the admin side writes
// into it, and the student write while no admin is watching. Afterwards the
// admin counter must equal the student's message count and the student
// counter must be zero.
func runStudent(n int, adminToken string) error {
	email := fmt.Sprintf("loadtest.student%d@%s", n, *emailDomain)
	token, err := login("/api/login", email, "password123")
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	var conv conversation
	if err := call(http.MethodPost, "/api/conversations", token, map[string]string{"department_slug": *departmentArg}, &conv); err != nil {
		return fmt.Errorf("start conversation: %w", err)
	}
	if err := call(http.MethodPost, "/api/conversations/"+conv.ID+"/open", adminToken, nil, nil); err != nil {
		return fmt.Errorf("admin open: %w", err)
	}

	wsURL := strings.Replace(*baseURL, "http", "ws", 1) + "/ws?department=" + url.QueryEscape(*departmentArg) + "&token=" + url.QueryEscape(token)
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		return fmt.Errorf("ws connect: %w", err)
	}
	defer ws.Close()

	selected := make(chan error, 1)
	go func() {
		for {
			var f frame
			if err := ws.ReadJSON(&f); err != nil {
				return
			}
			switch f.Type {
			case "selected":
				selected <- nil
			case "error":
				select {
				case selected <- fmt.Errorf("server: %s", f.Error):
				default:
					log.Printf("student %d: server error: %s", n, f.Error)
				}
			}
		}
	}()

	select {
	case err := <-selected:
		if err != nil {
			return err
		}
	case <-time.After(10 * time.Second):
		return fmt.Errorf("no selection ack")
	}

	for i := 0; i < *msgCount; i++ {
		if err := ws.WriteJSON(map[string]string{"type": "send", "text": fmt.Sprintf("student %d msg %d", n, i)}); err != nil {
			return fmt.Errorf("ws write: %w", err)
		}
		reply := map[string]any{"text": fmt.Sprintf("reply %d", i), "as_department": true}
		if err := call(http.MethodPost, "/api/conversations/"+conv.ID+"/messages", adminToken, reply, nil); err != nil {
			return fmt.Errorf("admin reply: %w", err)
		}
		time.Sleep(50 * time.Millisecond)
	}

	// Give the last websocket sends time to land.
	deadline := time.Now().Add(10 * time.Second)
	for {
		got, err := fetchConversation(adminToken, conv.ID)
		if err != nil {
			return err
		}
		if got.Unread < 0 || got.UnreadStudent < 0 {
			return fmt.Errorf("negative counter: %+v", got)
		}
		if got.Unread == *msgCount && got.UnreadStudent == 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("counters = {unread:%d unread_student:%d}, want {unread:%d unread_student:0}", got.Unread, got.UnreadStudent, *msgCount)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

func fetchConversation(token, id string) (*conversation, error) {
	var list struct {
		Conversations []conversation `json:"conversations"`
	}
	if err := call(http.MethodGet, "/api/conversations", token, nil, &list); err != nil {
		return nil, err
	}
	for _, c := range list.Conversations {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, fmt.Errorf("conversation %s not listed", id)
}

func login(path, email, password string) (string, error) {
	var res authResponse
	if err := call(http.MethodPost, path, "", map[string]string{"email": email, "password": password}, &res); err != nil {
		return "", err
	}
	return res.Token, nil
}

func call(method, path, token string, body, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequest(method, *baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
