package mpm

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestMPM(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "MPM Suite")
}
