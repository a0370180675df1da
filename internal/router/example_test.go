package router

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

func ExampleRouter_GetRoot() {
	env := setupTestRouter(nil)
	defer env.server.Close()

	resp, err := http.Get(env.server.URL + "/")
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		panic(err)
	}

	fmt.Println("Status Code:", resp.StatusCode)
	fmt.Print("Body: ", string(b))

	// Output:
	// Status Code: 200
	// Body: {"message":"API Sistem Arsip Surat BPN Palembang"}
}

func ExampleRouter_PostApiauthlogin() {
	env := setupTestRouter(nil)
	defer env.server.Close()

	body := strings.NewReader(`{"username":"admin","password":"wrong"}`)
	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/auth/login", body)
	if err != nil {
		panic(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		panic(err)
	}

	fmt.Println("Status Code:", resp.StatusCode)
	fmt.Print("Body: ", string(b))

	// Output:
	// Status Code: 401
	// Body: {"message":"Username atau password salah"}
}
