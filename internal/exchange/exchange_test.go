package exchange

import (
	"bytes"
	"errors"
	"math/big"
	"strings"
	"testing"
)

// Test vectors imported from RFC 5054 – Appendix B
// https://datatracker.ietf.org/doc/html/rfc5054#appendix-B
var (
	I    = "alice"
	P    = "password123"
	x    = mustParseHex("94B7555A ABE9127C C58CCF49 93DB6CF8 4D16C124")
	salt = mustParseHex("BEB25379 D1A8581E B5A72767 3A2441EE")
	k    = mustParseHex("7556AA04 5AEF2CDD 07ABAF0F 665C3E81 8913186F")
	v    = mustParseHex(strings.Join([]string{
		"7E273DE8 696FFC4F 4E337D05 B4B375BE B0DDE156 9E8FA00A 9886D812",
		"9BADA1F1 822223CA 1A605B53 0E379BA4 729FDC59 F105B478 7E5186F5",
		"C671085A 1447B52A 48CF1970 B4FB6F84 00BBF4CE BFBB1681 52E08AB5",
		"EA53D15C 1AFF87B2 B9DA6E04 E058AD51 CC72BFC9 033B564E 26480D78",
		"E955A5E2 9E7AB245 DB2BE315 E2099AFB",
	}, " "))
	a = mustParseHex("60975527 035CF2AD 1989806F 0407210B C81EDC04 E2762A56 AFD529DD DA2D4393")
	A = mustParseHex(strings.Join([]string{
		"61D5E490 F6F1B795 47B0704C 436F523D D0E560F0 C64115BB 72557EC4",
		"4352E890 3211C046 92272D8B 2D1A5358 A2CF1B6E 0BFCF99F 921530EC",
		"8E393561 79EAE45E 42BA92AE ACED8251 71E1E8B9 AF6D9C03 E1327F44",
		"BE087EF0 6530E69F 66615261 EEF54073 CA11CF58 58F0EDFD FE15EFEA",
		"B349EF5D 76988A36 72FAC47B 0769447B",
	}, " "))
	b = mustParseHex("E487CB59 D31AC550 471E81F0 0F6928E0 1DDA08E9 74A004F4 9E61F5D1 05284D20")
	B = mustParseHex(strings.Join([]string{
		"BD0C6151 2C692C0C B6D041FA 01BB152D 4916A1E7 7AF46AE1 05393011",
		"BAF38964 DC46A067 0DD125B9 5A981652 236F99D9 B681CBF8 7837EC99",
		"6C6DA044 53728610 D0C6DDB5 8B318885 D7D82C7F 8DEB75CE 7BD4FBAA",
		"37089E6F 9C6059F3 88838E7A 00030B33 1EB76840 910440B1 B27AAEAE",
		"EB4012B7 D7665238 A8E3FB00 4B117B58",
	}, " "))
	u = mustParseHex("CE38B959 3487DA98 554ED47D 70A7AE5F 462EF019")
	S = mustParseHex(strings.Join([]string{
		"B0DC82BA BCF30674 AE450C02 87745E79 90A3381F 63B387AA F271A10D",
		"233861E3 59B48220 F7C4693C 9AE12B0A 6F67809F 0876E2D0 13800D6C",
		"41BB59B6 D5979B5C 00A172B4 A2A5903A 0BDCAF8A 709585EB 2AFAFA8F",
		"3499B200 210DCC1F 10EB3394 3CD67FC8 8A2F39A4 BE5BEC4E C0A3212D",
		"C346D7E4 74B29EDE 8A469FFE CA686E5A",
	}, " "))
)

var group = RFC5054Group1024

// assertEqualBytes fails t if wanted != got
func assertEqualBytes(t *testing.T, name string, wanted, got []byte) {
	t.Helper()

	if !bytes.Equal(got, wanted) {
		t.Fatalf("%s - bytes don't match", name)
	}
}

func rfcRecord(t *testing.T) Record {
	t.Helper()

	r, err := ComputeVerifier(group, I, P, salt.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestComputeLittleX(t *testing.T) {
	got, err := group.Derive(I, P, salt.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	assertEqualBytes(t, "x", x.Bytes(), got)
}

func TestComputeLittleK(t *testing.T) {
	got, err := computeLittleK(group)
	if err != nil {
		t.Fatal(err)
	}
	assertEqualBytes(t, "k", k.Bytes(), got.Bytes())
}

func TestComputeLittleU(t *testing.T) {
	got, err := computeLittleU(group, A, B)
	if err != nil {
		t.Fatal(err)
	}
	assertEqualBytes(t, "u", u.Bytes(), got.Bytes())
}

func TestCheckLittleU(t *testing.T) {
	if err := checkLittleU(big.NewInt(0)); !errors.Is(err, errInvalidU) {
		t.Fatalf("expected errInvalidU, got %v", err)
	}
	if err := checkLittleU(u); err != nil {
		t.Fatal(err)
	}
}

func TestComputeVerifier(t *testing.T) {
	r := rfcRecord(t)
	assertEqualBytes(t, "v", v.Bytes(), r.Verifier())
	assertEqualBytes(t, "salt", salt.Bytes(), r.Salt())
	if r.Username() != I {
		t.Fatalf("username - wanted %q, got %q", I, r.Username())
	}
}

func TestKeyAgreement(t *testing.T) {
	c, err := newClientWithKey(group, I, P, salt.Bytes(), a)
	if err != nil {
		t.Fatal(err)
	}
	s, err := newServerWithKey(group, rfcRecord(t), b)
	if err != nil {
		t.Fatal(err)
	}

	assertEqualBytes(t, "A", A.Bytes(), c.A().Bytes())
	assertEqualBytes(t, "B", B.Bytes(), s.B().Bytes())

	t.Run("Client", func(t *testing.T) {
		got, err := c.Secret(s.B())
		if err != nil {
			t.Fatal(err)
		}
		assertEqualBytes(t, "S", S.Bytes(), got.Bytes())
	})

	t.Run("Server", func(t *testing.T) {
		got, err := s.Secret(c.A())
		if err != nil {
			t.Fatal(err)
		}
		assertEqualBytes(t, "S", S.Bytes(), got.Bytes())
	})
}

func TestKeyAgreementRandom(t *testing.T) {
	for _, g := range []*Group{RFC5054Group1024, RFC5054Group2048} {
		t.Run(g.Name, func(t *testing.T) {
			salt := NewSalt(16)
			r, err := ComputeVerifier(g, "bob", "hunter2", salt)
			if err != nil {
				t.Fatal(err)
			}
			c, err := NewClient(g, "bob", "hunter2", r.Salt())
			if err != nil {
				t.Fatal(err)
			}
			s, err := NewServer(g, r)
			if err != nil {
				t.Fatal(err)
			}

			cS, err := c.Secret(s.B())
			if err != nil {
				t.Fatal(err)
			}
			sS, err := s.Secret(c.A())
			if err != nil {
				t.Fatal(err)
			}
			assertEqualBytes(t, "S", sS.Bytes(), cS.Bytes())
		})
	}
}

func TestInvalidPublicKeys(t *testing.T) {
	c, err := newClientWithKey(group, I, P, salt.Bytes(), a)
	if err != nil {
		t.Fatal(err)
	}
	s, err := newServerWithKey(group, rfcRecord(t), b)
	if err != nil {
		t.Fatal(err)
	}

	for _, bad := range []*big.Int{big.NewInt(0), new(big.Int).Set(group.N), new(big.Int).Lsh(group.N, 1)} {
		if _, err := c.Secret(bad); !errors.Is(err, ErrInvalidPublicKey) {
			t.Errorf("client accepted B = %x: %v", bad, err)
		}
		if _, err := s.Secret(bad); !errors.Is(err, ErrInvalidPublicKey) {
			t.Errorf("server accepted A = %x: %v", bad, err)
		}
	}
}

func TestRecordScan(t *testing.T) {
	r := rfcRecord(t)

	value, err := r.Value()
	if err != nil {
		t.Fatal(err)
	}

	var scanned Record
	if err := scanned.Scan(value); err != nil {
		t.Fatal(err)
	}
	assertEqualBytes(t, "record", r, scanned)

	if err := scanned.Scan("not bytes"); err == nil {
		t.Error("scanning a string should fail")
	}
	if err := scanned.Scan([]byte{5, 'a'}); !errors.Is(err, errMalformedRecord) {
		t.Errorf("expected errMalformedRecord, got %v", err)
	}
}

func TestNewRecordLimits(t *testing.T) {
	if _, err := NewRecord(strings.Repeat("a", 256), nil, nil); err == nil {
		t.Error("username longer than 255 bytes should be rejected")
	}
	if _, err := NewRecord("alice", make([]byte, 256), nil); err == nil {
		t.Error("salt longer than 255 bytes should be rejected")
	}
}

func TestNFKD(t *testing.T) {
	if got := NFKD("  \ufb01\u00e9 "); got != "fie\u0301" {
		t.Fatalf("got %q", got)
	}
}
