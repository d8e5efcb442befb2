package keystream

import (
	"bytes"
	"crypto/rc4"
	"encoding/hex"
	"sync"
	"testing"
)

const golden256 = "574bacb68345b18701f587e0459090e40fc8e9083ca651ae2aa8a9b5d995e612" +
	"de219d1556c88824e012fce6ae902801611fab3ff249178efe91c320ebb04eab" +
	"291e305dd5c10b79e953d982af8af343ea7d7a6f4e6f70e46c9a579fde128d6b" +
	"62b8eedbc9c08dd6efffdb724745785a1e961b5ea9fbbfbac5c2175efc69083e" +
	"5e17cb8d7d11709ad2512f9675cacc4c224cc0993af1e8044ef98f73c6777547" +
	"f310e6fe1fa58db880bf52460b8d5709440071a5715f1664bff2396d8cef83a0" +
	"018fb8f9890958760cb68c086b2873bdc1a6aec7a4338e6cbee4f77f9f152c52" +
	"79b0b466f283c5fbd886993d7b26233d6855b10af96502a30a0e50c6a7169ea6"

func mustEngine(t testing.TB, key []byte) *Engine {
	t.Helper()
	e, err := New(key)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

func drain(e *Engine, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = e.NextByte()
	}
	return out
}

func TestFirstByteGolden(t *testing.T) {
	e := mustEngine(t, DefaultKey)
	if b := e.NextByte(); b != 0x57 {
		t.Fatalf("first byte: expected 0x57, got %#02x", b)
	}
}

func TestFirst16Golden(t *testing.T) {
	e := mustEngine(t, DefaultKey)
	want := []byte{
		0x57, 0x4b, 0xac, 0xb6, 0x83, 0x45, 0xb1, 0x87,
		0x01, 0xf5, 0x87, 0xe0, 0x45, 0x90, 0x90, 0xe4,
	}
	if got := drain(e, 16); !bytes.Equal(got, want) {
		t.Fatalf("first 16 bytes: expected %x, got %x", want, got)
	}
}

func TestFirst256Golden(t *testing.T) {
	want, err := hex.DecodeString(golden256)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	e := mustEngine(t, DefaultKey)
	if got := drain(e, 256); !bytes.Equal(got, want) {
		t.Fatalf("first 256 bytes mismatch:\n got %x\nwant %x", got, want)
	}
}

func TestInitializedTable(t *testing.T) {
	e := mustEngine(t, DefaultKey)
	st := e.Snapshot()
	want := []byte{
		0x54, 0xbd, 0x28, 0x57, 0xc2, 0x30, 0xa9, 0x01,
		0x76, 0x43, 0xe0, 0xee, 0x13, 0x0b, 0xf5, 0x4b,
	}
	if !bytes.Equal(st.Table[:16], want) {
		t.Fatalf("table prefix: expected %x, got %x", want, st.Table[:16])
	}
	if st.IndexA != 0 || st.IndexB != 0 || st.Steps != 0 {
		t.Fatalf("unexpected indices after Initialize: %+v", st)
	}
}

func TestDeterminism(t *testing.T) {
	keys := [][]byte{DefaultKey, {0x00}, bytes.Repeat([]byte{0xff}, MaxKeySize), []byte("another key")}
	for _, key := range keys {
		a := drain(mustEngine(t, key), 4096)
		b := drain(mustEngine(t, key), 4096)
		if !bytes.Equal(a, b) {
			t.Fatalf("key %x: two engines diverged", key)
		}
	}
}

func TestReinitializeResetsState(t *testing.T) {
	e := mustEngine(t, DefaultKey)
	first := drain(e, 64)
	if err := e.Initialize(DefaultKey); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if again := drain(e, 64); !bytes.Equal(first, again) {
		t.Fatalf("re-initialized engine did not reproduce output")
	}
}

func TestMatchesStdlibRC4(t *testing.T) {
	for _, key := range [][]byte{DefaultKey, []byte("k"), bytes.Repeat([]byte{0xa5}, 200)} {
		c, err := rc4.NewCipher(key)
		if err != nil {
			t.Fatalf("rc4.NewCipher: %v", err)
		}
		want := make([]byte, 1024)
		c.XORKeyStream(want, want)

		got := drain(mustEngine(t, key), len(want))
		if !bytes.Equal(got, want) {
			t.Fatalf("key %x: keystream differs from crypto/rc4", key)
		}
	}
}

func TestPermutationInvariant(t *testing.T) {
	e := mustEngine(t, DefaultKey)
	for n := 0; n < 10000; n++ {
		e.NextByte()
		if n%997 == 0 && !e.Snapshot().IsPermutation() {
			t.Fatalf("table not a permutation after %d steps", n+1)
		}
	}
	st := e.Snapshot()
	if !st.IsPermutation() {
		t.Fatalf("table not a permutation after 10000 steps")
	}
	if st.Steps != 10000 {
		t.Fatalf("expected 10000 steps, got %d", st.Steps)
	}
	if st.IndexA != uint8(10000%256) {
		t.Fatalf("IndexA: expected %d, got %d", 10000%256, st.IndexA)
	}
}

func TestIsPermutationDetectsDuplicate(t *testing.T) {
	var st State
	for i := range st.Table {
		st.Table[i] = byte(i)
	}
	if !st.IsPermutation() {
		t.Fatalf("identity table should be a permutation")
	}
	st.Table[3] = st.Table[4]
	if st.IsPermutation() {
		t.Fatalf("duplicate entry not detected")
	}
}

func TestInvalidKeys(t *testing.T) {
	if _, err := New(nil); err != ErrEmptyKey {
		t.Fatalf("expected ErrEmptyKey, got %v", err)
	}
	if _, err := New(make([]byte, MaxKeySize+1)); err != ErrKeyTooLong {
		t.Fatalf("expected ErrKeyTooLong, got %v", err)
	}
}

func TestUninitialized(t *testing.T) {
	var e Engine
	if e.Ready() {
		t.Fatalf("zero engine should not be ready")
	}
	if err := e.Do(func(*Stepper) error { return nil }); err != ErrUninitialized {
		t.Fatalf("Do: expected ErrUninitialized, got %v", err)
	}
	if _, err := e.Read(make([]byte, 4)); err != ErrUninitialized {
		t.Fatalf("Read: expected ErrUninitialized, got %v", err)
	}
	defer func() {
		if r := recover(); r != ErrUninitialized {
			t.Fatalf("NextByte: expected panic with ErrUninitialized, got %v", r)
		}
	}()
	e.NextByte()
}

func TestReadMatchesNextByte(t *testing.T) {
	want := drain(mustEngine(t, DefaultKey), 300)
	e := mustEngine(t, DefaultKey)
	got := make([]byte, 300)
	if n, err := e.Read(got[:100]); n != 100 || err != nil {
		t.Fatalf("Read: n=%d err=%v", n, err)
	}
	if n, err := e.Read(got[100:]); n != 200 || err != nil {
		t.Fatalf("Read: n=%d err=%v", n, err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("Read output differs from NextByte output")
	}
}

func TestXORKeyStreamRoundTrip(t *testing.T) {
	msg := []byte("attack at dawn, or whenever is convenient")
	ct := make([]byte, len(msg))
	mustEngine(t, DefaultKey).XORKeyStream(ct, msg)
	if bytes.Equal(ct, msg) {
		t.Fatalf("ciphertext equals plaintext")
	}
	pt := make([]byte, len(ct))
	mustEngine(t, DefaultKey).XORKeyStream(pt, ct)
	if !bytes.Equal(pt, msg) {
		t.Fatalf("round trip mismatch")
	}
}

func TestConcurrentNextByte(t *testing.T) {
	e := mustEngine(t, DefaultKey)
	const workers, perWorker = 8, 2000

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < perWorker; n++ {
				e.NextByte()
			}
		}()
	}
	wg.Wait()

	st := e.Snapshot()
	if st.Steps != workers*perWorker {
		t.Fatalf("expected %d steps, got %d", workers*perWorker, st.Steps)
	}
	if !st.IsPermutation() {
		t.Fatalf("table corrupted by concurrent steps")
	}

	// The interleaving is arbitrary, but the state only depends on the step count.
	ref := mustEngine(t, DefaultKey)
	drain(ref, workers*perWorker)
	if ref.Snapshot() != st {
		t.Fatalf("concurrent state differs from sequential state")
	}
}

func BenchmarkNextByte(b *testing.B) {
	e := mustEngine(b, DefaultKey)
	b.SetBytes(1)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = e.NextByte()
	}
}

func BenchmarkRead(b *testing.B) {
	e := mustEngine(b, DefaultKey)
	buf := make([]byte, 64*1024)
	b.SetBytes(int64(len(buf)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = e.Read(buf)
	}
}
