package dat

import "fmt"

func ExampleSignatureClientVersion() {
	fmt.Println(SignatureClientVersion(0x4A81881B))
	fmt.Println(SignatureClientVersion(0x12345678))
	// Output:
	// 8.54
	// unknown
}
