package frame

import "testing"

func BenchmarkBufferWriteReadRoundTrip(b *testing.B) {
	defer startProfile()()

	var buf Buffer
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		buf.WriteInt(42)
		buf.WriteLong(1 << 40)
		buf.WriteString("ks.table")
		buf.WriteBytes([]byte("payload"))

		buf.ReadInt()
		buf.ReadLong()
		buf.ReadString()
		buf.ReadBytes()
		if err := buf.Error(); err != nil {
			b.Fatal(err)
		}
	}
}
