package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups this app's secrets in the OS keychain.
const KeyringService = "linkedin-job-tracker"

// Env is the process environment the tracker runs with. The mail password
// comes from EMAIL_PASSWORD when set, falling back to the OS keychain entry
// for the account address.
type Env struct {
	Address    string // EMAIL_ADDRESS
	Password   string // EMAIL_PASSWORD or keychain
	IMAPServer string // IMAP_SERVER, host[:port], port defaults to 993
	DataDir    string // TRACKER_DATA_DIR, defaults to "."
	Port       int    // TRACKER_PORT, defaults to 8090
}

func FromEnv() (Env, error) {
	e := Env{
		Address:    strings.TrimSpace(os.Getenv("EMAIL_ADDRESS")),
		Password:   os.Getenv("EMAIL_PASSWORD"),
		IMAPServer: strings.TrimSpace(os.Getenv("IMAP_SERVER")),
		DataDir:    strings.TrimSpace(os.Getenv("TRACKER_DATA_DIR")),
		Port:       8090,
	}

	if e.Address == "" {
		return Env{}, errors.New("EMAIL_ADDRESS is not set")
	}
	if e.Password == "" {
		pw, err := keyring.Get(KeyringService, e.Address)
		if err != nil || strings.TrimSpace(pw) == "" {
			return Env{}, errors.New("EMAIL_PASSWORD is not set and no keychain entry found")
		}
		e.Password = pw
	}
	if e.IMAPServer == "" {
		e.IMAPServer = "imap.gmail.com"
	}
	if !strings.Contains(e.IMAPServer, ":") {
		e.IMAPServer += ":993"
	}
	if e.DataDir == "" {
		e.DataDir = "."
	}
	if p := os.Getenv("TRACKER_PORT"); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n > 0 {
			e.Port = n
		}
	}
	return e, nil
}

// SetPassword stores the mail password in the OS keychain so the env
// variable does not have to stay exported.
func SetPassword(address, password string) error {
	if strings.TrimSpace(address) == "" {
		return errors.New("account address is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, address, password)
}
