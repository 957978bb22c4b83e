package protocol

import (
	"encoding/hex"
	"testing"
)

func TestCRC5(t *testing.T) {
	vectors := map[string]byte{
		"54050000":         0x19,
		"53050000":         0x03,
		"52050000":         0x0A,
		"40050000":         0x1C,
		"5109008000000000": 0x1C,
	}
	for input, expected := range vectors {
		data, _ := hex.DecodeString(input)
		if crc := CRC5(data); crc != expected {
			t.Fatalf("%s: %02x", input, crc)
		}
	}
}

func TestCRC5Bits(t *testing.T) {
	data, _ := hex.DecodeString("13971800000000")
	if crc := CRC5Bits(data, 51); crc != 0x06 {
		t.Fatalf("%02x", crc)
	}
	if CRC5Bits(data, 48) != CRC5(data[:6]) {
		t.Fatal("byte aligned bit count differs from CRC5")
	}
}

func TestCRC16(t *testing.T) {
	if crc := CRC16([]byte("123456789")); crc != 0x29B1 {
		t.Fatalf("%04x", crc)
	}
}

func TestCRC5_SingleBitSensitivity(t *testing.T) {
	data, _ := hex.DecodeString("5109001400000200")
	expected := CRC5(data)
	if CRC5(data) != expected {
		t.Fatal("not deterministic")
	}
	for i := 0; i < len(data)*8; i++ {
		data[i/8] ^= 1 << uint(i%8)
		if CRC5(data) == expected {
			t.Fatalf("bit %d flip undetected", i)
		}
		data[i/8] ^= 1 << uint(i%8)
	}
}

func TestCRC16_SingleBitSensitivity(t *testing.T) {
	data := []byte("123456789")
	for i := 0; i < len(data)*8; i++ {
		data[i/8] ^= 1 << uint(i%8)
		if CRC16(data) == 0x29B1 {
			t.Fatalf("bit %d flip undetected", i)
		}
		data[i/8] ^= 1 << uint(i%8)
	}
}

func BenchmarkCRC16(b *testing.B) {
	var data [MaxFrameLen]byte
	for i := 0; i < b.N; i++ {
		CRC16(data[2:150])
	}
}
