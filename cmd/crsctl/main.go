package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"courseledger/crypto"
	"courseledger/native/checkin"
)

const usage = `crsctl - courseledger operator tooling

Usage:
  crsctl gen-key
      Generate a new secp256k1 key and print the private key and address.

  crsctl sign-checkin -key <hex> -user <bech32> [-day <unix day key> | -date <YYYY-MM-DD>] [-message <text>]
      Sign a check-in attestation as the trusted authorizer and print the
      65-byte signature in hex.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	switch os.Args[1] {
	case "gen-key":
		runGenKey()
	case "sign-checkin":
		runSignCheckin(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
}

func runGenKey() {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		fatalf("generate key: %v", err)
	}
	fmt.Printf("private key: %s\n", hex.EncodeToString(key.Bytes()))
	fmt.Printf("address:     %s\n", key.PubKey().Address().String())
}

func runSignCheckin(args []string) {
	flags := flag.NewFlagSet("sign-checkin", flag.ExitOnError)
	keyHex := flags.String("key", "", "authorizer private key (hex)")
	userStr := flags.String("user", "", "user address (bech32)")
	day := flags.Uint64("day", 0, "day key (unix seconds, midnight UTC)")
	date := flags.String("date", "", "calendar date (YYYY-MM-DD, UTC)")
	message := flags.String("message", "", "check-in message text")
	_ = flags.Parse(args)

	trimmedKey := strings.TrimPrefix(strings.TrimSpace(*keyHex), "0x")
	if trimmedKey == "" {
		fatalf("sign-checkin: -key is required")
	}
	keyBytes, err := hex.DecodeString(trimmedKey)
	if err != nil {
		fatalf("sign-checkin: invalid key hex: %v", err)
	}
	key, err := crypto.PrivateKeyFromBytes(keyBytes)
	if err != nil {
		fatalf("sign-checkin: invalid key: %v", err)
	}

	addr, err := crypto.DecodeAddress(strings.TrimSpace(*userStr))
	if err != nil {
		fatalf("sign-checkin: invalid user address: %v", err)
	}
	var user [20]byte
	copy(user[:], addr.Bytes())

	dayKey := *day
	if dayKey == 0 && strings.TrimSpace(*date) != "" {
		parsed, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(*date), time.UTC)
		if err != nil {
			fatalf("sign-checkin: invalid date: %v", err)
		}
		dayKey = checkin.NormalizeDay(parsed.Unix())
	}
	if dayKey == 0 {
		dayKey = checkin.NormalizeDay(time.Now().Unix())
	}
	if !checkin.ValidDayKey(dayKey) {
		fatalf("sign-checkin: day key must be a multiple of %d", checkin.DaySeconds)
	}

	signature, err := checkin.SignAttestation(key, user, dayKey, *message)
	if err != nil {
		fatalf("sign-checkin: %v", err)
	}
	fmt.Printf("day:       %d\n", dayKey)
	fmt.Printf("signature: %s\n", hex.EncodeToString(signature))
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
